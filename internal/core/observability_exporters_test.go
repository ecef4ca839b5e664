package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"testing"
	"time"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if expvar.Get(rec.Name()) == nil {
		t.Fatalf("recorder should be published under %s", rec.Name())
	}
	rec.Observe(context.Background(), "cross", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "cross", false, 3*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)

	snap := rec.Snapshot()
	if snap.DurationsMS["cross"] != 5 {
		t.Fatalf("unexpected duration total %v", snap.DurationsMS["cross"])
	}
	if snap.Results["cross"]["success"] != 1 || snap.Results["cross"]["error"] != 1 {
		t.Fatalf("unexpected results %v", snap.Results)
	}
	if len(snap.Operations) != 1 || snap.Operations[0] != "cross" {
		t.Fatalf("blank operations should be ignored: %v", snap.Operations)
	}
}

func TestJSONTracerNestsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	ctx, outer := tracer.Start(context.Background(), "cross_text")
	outerID, ok := SpanIDFromContext(ctx)
	if !ok || outerID == "" {
		t.Fatalf("expected span id in context")
	}
	_, inner := tracer.Start(ctx, "cross")
	inner.End(errors.New("boom"))
	outer.End(nil)
	outer.End(errors.New("ignored"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected two spans, got %d", len(entries))
	}
	if entries[0].ParentID != outerID || entries[0].Status != "error" || entries[0].Error != "boom" {
		t.Fatalf("unexpected inner span %+v", entries[0])
	}
	if entries[1].SpanID != outerID || entries[1].ParentID != "" || entries[1].Status != "success" {
		t.Fatalf("unexpected outer span %+v", entries[1])
	}

	var lines int
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var entry JSONTraceEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("expected two json lines, got %d", lines)
	}
}

func TestServiceWithJSONTracerAndExpvar(t *testing.T) {
	tracer := NewJSONTracer(nil)
	metrics := NewExpvarMetricsRecorder("")
	svc := NewInMemoryService(nil, WithTracer(tracer), WithMetricsRecorder(metrics))
	if _, err := svc.InstallPlugin(context.Background(), seedPlugin{species: ballPython()}); err != nil {
		t.Fatalf("install: %v", err)
	}
	var parent, child JSONTraceEntry
	for _, e := range tracer.Entries() {
		switch e.Operation {
		case opInstallPlugin:
			parent = e
		case opRegisterSpecies:
			child = e
		}
	}
	if parent.SpanID == "" || child.ParentID != parent.SpanID {
		t.Fatalf("seeding should nest under install span: parent %+v child %+v", parent, child)
	}
	if metrics.Snapshot().Results[opInstallPlugin]["success"] != 1 {
		t.Fatalf("expected install metric")
	}
}
