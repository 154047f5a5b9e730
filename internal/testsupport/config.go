package testsupport

import (
	"path/filepath"
	"testing"

	"docshed/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp directory per
// test, with the shed directories already created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ShedDir = filepath.Join(base, "shed")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Import.Workers = 2

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure shed directories: %v", err)
	}
	return &cfg
}

// WithLanguages overrides the validation language allow-list.
func WithLanguages(codes ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Validation.Languages = codes
	}
}

// WithCompression overrides the bundle compression codec.
func WithCompression(name string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Bundle.Compression = name
	}
}

