package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"morphcore/internal/blob"
	"morphcore/internal/catalog"
	"morphcore/pkg/domain"
)

// BundlePrefix is the blob key prefix under which catalog bundles live.
const BundlePrefix = "catalogs/"

// ErrNoBlobStore is returned by bundle operations on a service built without
// WithBlobStore.
var ErrNoBlobStore = errors.New("no blob store configured")

// ImportBundle reads a catalog bundle from blob storage and upserts it into the
// catalog store. The format follows the key extension.
func (s *Service) ImportBundle(ctx context.Context, key string) (Species, Result, error) {
	var (
		out Species
		res Result
	)
	err := s.run(ctx, opImportBundle, func(ctx context.Context) (string, error) {
		if s.blobs == nil {
			return key, ErrNoBlobStore
		}
		format, err := catalog.FormatForKey(key)
		if err != nil {
			return key, err
		}
		_, body, err := s.blobs.Get(ctx, key)
		if err != nil {
			return key, fmt.Errorf("get bundle %s: %w", key, err)
		}
		defer body.Close()
		species, err := catalog.DecodeBundle(body, format)
		if err != nil {
			return key, fmt.Errorf("bundle %s: %w", key, err)
		}
		out, res, err = s.upsertSpecies(ctx, species)
		return species.Slug, err
	})
	s.logViolations(opImportBundle, res)
	return out, res, err
}

// ExportBundle writes the stored species to blob storage under its
// conventional key, replacing any earlier export.
func (s *Service) ExportBundle(ctx context.Context, slug string, format catalog.Format) (blob.Info, error) {
	var info blob.Info
	err := s.run(ctx, opExportBundle, func(ctx context.Context) (string, error) {
		if s.blobs == nil {
			return slug, ErrNoBlobStore
		}
		species, ok := s.store.GetSpecies(slug)
		if !ok {
			return slug, domain.ErrNotFound{Entity: EntitySpecies, ID: slug}
		}
		var buf bytes.Buffer
		if err := catalog.EncodeBundle(&buf, species, format); err != nil {
			return slug, err
		}
		var err error
		info, err = s.blobs.Put(ctx, catalog.BundleKey(slug, format), &buf, blob.PutOptions{
			ContentType: format.ContentType(),
			Metadata: map[string]string{
				"species":  slug,
				"revision": strconv.FormatInt(species.Revision, 10),
			},
			Overwrite: true,
		})
		return slug, err
	})
	return info, err
}

// ListBundles returns the catalog bundles held in blob storage.
func (s *Service) ListBundles(ctx context.Context) ([]blob.Info, error) {
	var out []blob.Info
	err := s.run(ctx, opListBundles, func(ctx context.Context) (string, error) {
		if s.blobs == nil {
			return "", ErrNoBlobStore
		}
		var err error
		out, err = s.blobs.List(ctx, BundlePrefix)
		return "", err
	})
	return out, err
}
