package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"morphcore/internal/blob"
	"morphcore/internal/config"
	"morphcore/internal/core"
	"morphcore/plugins/ballpython"
	"morphcore/plugins/leopardgecko"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	store  core.PersistentStore
	svc    *core.Service
	// flush runs after the command, before the store closes.
	flush  []func() error
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// openApp loads configuration, opens the catalog and bundle stores and
// installs the bundled species plugins.
func openApp(ctx context.Context, logw io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger, err := newLogger(cfg, logw)
	if err != nil {
		return nil, err
	}
	store, err := core.OpenPersistentStore(core.StorageConfig{
		Driver:      core.StorageDriver(cfg.StorageDriver),
		SQLitePath:  cfg.SQLitePath,
		PostgresDSN: cfg.PostgresDSN,
	}, core.NewDefaultRulesEngine())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}
	blobs, err := blob.Open(ctx, cfg.Blob())
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("open %s blob store: %w", cfg.BlobDriver, err)
	}
	a := &app{cfg: cfg, logger: logger, store: store}
	opts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithBlobStore(blobs),
		core.WithMaxGenes(cfg.MaxGenes),
		core.WithCatalogCacheSize(cfg.CatalogCacheSize),
	}
	if opt := a.metricsOption(); opt != nil {
		opts = append(opts, opt)
	}
	traceOpt, err := a.traceOption(logw)
	if err != nil {
		closeStore(store)
		return nil, err
	}
	if traceOpt != nil {
		opts = append(opts, traceOpt)
	}
	a.svc = core.NewService(store, opts...)
	for _, p := range []core.Plugin{ballpython.New(), leopardgecko.New()} {
		if _, err := a.svc.InstallPlugin(ctx, p); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	return a, nil
}

// metricsOption builds the configured operation metrics exporter. The
// Prometheus registry is written to a node_exporter textfile when the command
// finishes; the expvar totals are logged.
func (a *app) metricsOption() core.ServiceOption {
	switch a.cfg.Metrics {
	case config.MetricsExpvar:
		rec := core.NewExpvarMetricsRecorder("")
		a.flush = append(a.flush, func() error {
			snap := rec.Snapshot()
			a.logger.Info("operation metrics", "operations", snap.Operations, "results", snap.Results, "durations_ms", snap.DurationsMS)
			return nil
		})
		return core.WithMetricsRecorder(rec)
	case config.MetricsPrometheus:
		reg := prometheus.NewRegistry()
		rec := core.NewPrometheusMetricsRecorder(reg, "")
		path := a.cfg.MetricsTextfile
		a.flush = append(a.flush, func() error {
			if err := prometheus.WriteToTextfile(path, reg); err != nil {
				return fmt.Errorf("write metrics textfile %s: %w", path, err)
			}
			return nil
		})
		return core.WithMetricsRecorder(rec)
	}
	return nil
}

// traceOption sends one JSON line per finished span to stderr or to the
// configured file, which is appended to.
func (a *app) traceOption(logw io.Writer) (core.ServiceOption, error) {
	switch a.cfg.Trace {
	case "":
		return nil, nil
	case "stderr":
		return core.WithTracer(core.NewJSONTracer(logw)), nil
	}
	f, err := os.OpenFile(a.cfg.Trace, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	a.flush = append(a.flush, f.Close)
	return core.WithTracer(core.NewJSONTracer(f)), nil
}

func (a *app) Close() error {
	var errs []error
	for _, fn := range a.flush {
		errs = append(errs, fn())
	}
	a.flush = nil
	errs = append(errs, closeStore(a.store))
	return errors.Join(errs...)
}

func closeStore(store core.PersistentStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
