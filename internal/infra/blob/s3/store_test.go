package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"morphcore/internal/blob/core"
)

func TestMockStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	if s.Driver() != core.DriverS3 || s.Bucket() != "mock-bucket" {
		t.Fatalf("unexpected store identity %s %s", s.Driver(), s.Bucket())
	}
	body := "slug: leopard-gecko\n"
	info, err := s.Put(ctx, "catalogs/leopard-gecko.yaml", strings.NewReader(body), core.PutOptions{ContentType: "application/yaml", Metadata: map[string]string{"revision": "4"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(body)) || info.ContentType != "application/yaml" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "catalogs/leopard-gecko.yaml", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, rc, err := s.Get(ctx, "catalogs/leopard-gecko.yaml")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != body || got.Metadata["revision"] != "4" {
		t.Fatalf("unexpected object %q %+v", data, got)
	}
	if _, err := s.Put(ctx, "catalogs/ball-python.yaml", strings.NewReader("slug: ball-python\n"), core.PutOptions{Overwrite: true}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, err := s.List(ctx, "catalogs/")
	if err != nil || len(list) != 2 || list[0].Key != "catalogs/ball-python.yaml" {
		t.Fatalf("list: %v %+v", err, list)
	}
	if ok, err := s.Delete(ctx, "catalogs/ball-python.yaml"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := s.Delete(ctx, "catalogs/ball-python.yaml"); err != nil || ok {
		t.Fatalf("delete missing: %v %v", ok, err)
	}
	if _, err := s.Head(ctx, "catalogs/ball-python.yaml"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func TestNewWithStaticCredentials(t *testing.T) {
	s, err := New(context.Background(), Config{Bucket: "bundles", Endpoint: "http://localhost:9000", PathStyle: true, AccessKeyID: "minio", SecretAccessKey: "minio123"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Bucket() != "bundles" {
		t.Fatalf("unexpected bucket %s", s.Bucket())
	}
}

func TestDecodeChunked(t *testing.T) {
	if dec, ok := decodeChunked([]byte("3\r\nabc\r\n0\r\n")); !ok || string(dec) != "abc" {
		t.Fatalf("unexpected decode: %v %q", ok, dec)
	}
	if _, ok := decodeChunked([]byte("5\r\nabc\r\n0\r\n")); ok {
		t.Fatalf("expected length mismatch to fail")
	}
	if _, ok := decodeChunked([]byte("zz\r\nabc\r\n0\r\n")); ok {
		t.Fatalf("expected bad hex to fail")
	}
}
