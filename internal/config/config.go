// Package config loads process configuration from MORPHCORE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"morphcore/internal/blob"
)

// Config is the full runtime configuration.
type Config struct {
	StorageDriver string `env:"MORPHCORE_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"MORPHCORE_SQLITE_PATH" envDefault:"morphcore.db"`
	PostgresDSN   string `env:"MORPHCORE_POSTGRES_DSN"`

	BlobDriver   string `env:"MORPHCORE_BLOB_DRIVER" envDefault:"fs"`
	BlobFSRoot   string `env:"MORPHCORE_BLOB_FS_ROOT" envDefault:"./bundles"`
	S3Bucket     string `env:"MORPHCORE_BLOB_S3_BUCKET"`
	S3Region     string `env:"MORPHCORE_BLOB_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint   string `env:"MORPHCORE_BLOB_S3_ENDPOINT"`
	S3PathStyle  bool   `env:"MORPHCORE_BLOB_S3_PATH_STYLE"`
	S3AccessKey  string `env:"MORPHCORE_BLOB_S3_ACCESS_KEY_ID"`
	S3SecretKey  string `env:"MORPHCORE_BLOB_S3_SECRET_ACCESS_KEY"`
	S3SessionTok string `env:"MORPHCORE_BLOB_S3_SESSION_TOKEN"`

	MaxGenes         int    `env:"MORPHCORE_MAX_GENES" envDefault:"8"`
	Locale           string `env:"MORPHCORE_LOCALE" envDefault:"en"`
	CatalogCacheSize int    `env:"MORPHCORE_CATALOG_CACHE_SIZE" envDefault:"16"`

	LogLevel  string `env:"MORPHCORE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"MORPHCORE_LOG_FORMAT" envDefault:"text"`

	// Metrics selects the operation metrics exporter: "", "expvar" or "prometheus".
	Metrics         string `env:"MORPHCORE_METRICS"`
	MetricsTextfile string `env:"MORPHCORE_METRICS_TEXTFILE"`
	// Trace is "stderr" or a file path receiving one JSON line per span.
	Trace           string `env:"MORPHCORE_TRACE"`
}

// MaxGenesCeiling is the largest accepted MORPHCORE_MAX_GENES (3^12 cells).
const MaxGenesCeiling = 12

// Metrics exporters.
const (
	MetricsOff        = ""
	MetricsExpvar     = "expvar"
	MetricsPrometheus = "prometheus"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no component can act on.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	switch blob.Driver(c.BlobDriver) {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("MORPHCORE_BLOB_S3_BUCKET required for s3 blob driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.BlobDriver)
	}
	if c.MaxGenes < 1 || c.MaxGenes > MaxGenesCeiling {
		return fmt.Errorf("max genes must be between 1 and %d, got %d", MaxGenesCeiling, c.MaxGenes)
	}
	if c.CatalogCacheSize < 1 {
		return fmt.Errorf("catalog cache size must be positive, got %d", c.CatalogCacheSize)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	switch c.Metrics {
	case MetricsOff, MetricsExpvar:
	case MetricsPrometheus:
		if c.MetricsTextfile == "" {
			return fmt.Errorf("MORPHCORE_METRICS_TEXTFILE required for prometheus metrics")
		}
	default:
		return fmt.Errorf("unknown metrics exporter %q", c.Metrics)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// Blob returns the bundle archive configuration.
func (c Config) Blob() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.BlobDriver),
		FSRoot: c.BlobFSRoot,
		S3: blob.S3Config{
			Bucket:          c.S3Bucket,
			Region:          c.S3Region,
			Endpoint:        c.S3Endpoint,
			PathStyle:       c.S3PathStyle,
			AccessKeyID:     c.S3AccessKey,
			SecretAccessKey: c.S3SecretKey,
			SessionToken:    c.S3SessionTok,
		},
	}
}
