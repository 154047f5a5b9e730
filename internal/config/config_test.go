package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docshed/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	// Defaults carry an unexpanded ~ path; expansion happens in Load.
	cfg.Paths.ShedDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
shed_dir = "` + dir + `/shed"

[validation]
min_length = 5
languages = ["EN", "de", "en", ""]

[bundle]
compression = "ZSTD"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected config to resolve, got exists=%v path=%q", exists, resolved)
	}
	if cfg.Validation.MinLength != 5 {
		t.Fatalf("min_length override lost: %d", cfg.Validation.MinLength)
	}
	if got := strings.Join(cfg.Validation.Languages, ","); got != "en,de" {
		t.Fatalf("languages not normalized/deduplicated: %q", got)
	}
	if cfg.Bundle.Compression != "zstd" {
		t.Fatalf("compression not lowercased: %q", cfg.Bundle.Compression)
	}
	// Untouched sections keep defaults.
	if cfg.Import.Workers != 4 || !cfg.Import.AutoPromote {
		t.Fatalf("import defaults lost: %+v", cfg.Import)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if cfg.Validation.MinLength != 20 || cfg.Validation.MaxLength != 65536 {
		t.Fatalf("unexpected defaults: %+v", cfg.Validation)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"negative min length", func(c *config.Config) { c.Validation.MinLength = -1 }},
		{"max below min", func(c *config.Config) { c.Validation.MinLength = 100; c.Validation.MaxLength = 10 }},
		{"ratio above one", func(c *config.Config) { c.Validation.MaxInvalidRatio = 1.5 }},
		{"zero workers", func(c *config.Config) { c.Import.Workers = 0 }},
		{"unknown codec", func(c *config.Config) { c.Bundle.Compression = "bzip2" }},
		{"unknown log format", func(c *config.Config) { c.Logging.Format = "logfmt" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.ShedDir = t.TempDir()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ShedDir = filepath.Join(t.TempDir(), "shed")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.ObjectsDir(), cfg.BundlesDir(), cfg.LogDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestSampleMentionsEverySection(t *testing.T) {
	sample := config.Sample()
	for _, section := range []string{"[paths]", "[validation]", "[import]", "[bundle]", "[logging]"} {
		if !strings.Contains(sample, section) {
			t.Fatalf("sample config missing %s", section)
		}
	}
}
