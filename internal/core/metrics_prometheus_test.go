package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusMetricsRecorder(reg, "test")
	rec.Observe(context.Background(), "cross", true, 10*time.Millisecond)
	rec.Observe(context.Background(), "cross", false, 20*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)

	if got := testutil.ToFloat64(rec.operations.WithLabelValues("cross", "success")); got != 1 {
		t.Fatalf("success counter = %v", got)
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("cross", "error")); got != 1 {
		t.Fatalf("error counter = %v", got)
	}
	if n := testutil.CollectAndCount(rec.duration, "test_service_operation_duration_seconds"); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var count uint64
	for _, mf := range families {
		if mf.GetName() != "test_service_operation_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			count += m.GetHistogram().GetSampleCount()
		}
	}
	if count != 2 {
		t.Fatalf("expected two observations, got %d", count)
	}
}

func TestPrometheusRecorderWiredIntoService(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusMetricsRecorder(reg, "")
	svc := NewInMemoryService(nil, WithMetricsRecorder(rec))
	mustRegister(t, svc, ballPython())
	if got := testutil.ToFloat64(rec.operations.WithLabelValues(opRegisterSpecies, "success")); got != 1 {
		t.Fatalf("register counter = %v", got)
	}
}
