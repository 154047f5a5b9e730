package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	ShedDir string `toml:"shed_dir"`
	APIBind string `toml:"api_bind"`
}

// Validation contains thresholds for the document verification checks.
// The defaults are documented configuration choices, not recovered
// constants; see sample_config.toml.
type Validation struct {
	MinLength          int      `toml:"min_length"`
	MaxLength          int      `toml:"max_length"`
	MaxInvalidRatio    float64  `toml:"max_invalid_ratio"`
	Languages          []string `toml:"languages"`
	LanguageConfidence float64  `toml:"language_confidence"`
	StrictLanguage     bool     `toml:"strict_language"`
}

// Import contains ingestion pipeline settings.
type Import struct {
	Workers     int  `toml:"workers"`
	AutoPromote bool `toml:"auto_promote"`
}

// Bundle contains archive sealing settings.
type Bundle struct {
	Compression string `toml:"compression"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for docshed.
//
// Configuration sections by subsystem:
//   - Paths: shed directory layout and API bind address
//   - Validation: verification thresholds and language allow-list
//   - Import: worker count and auto-promotion
//   - Bundle: archive compression codec
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Validation Validation `toml:"validation"`
	Import     Import     `toml:"import"`
	Bundle     Bundle     `toml:"bundle"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default
// configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/docshed/config.toml")
}

// Load locates, parses, and validates a configuration file. The
// returned config has all path fields expanded and normalized. The
// second return value is the resolved path, the third reports whether
// a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(defaultPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultPath, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return defaultPath, true, nil
}

// Sample returns the annotated sample configuration file contents.
func Sample() string {
	return sampleConfig
}

// CreateSample writes the annotated sample configuration to target.
func CreateSample(target string) error {
	return os.WriteFile(target, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves a leading ~ against the home directory and
// returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// LedgerPath returns the path of the SQLite ledger inside the shed.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.ShedDir, "ledger.db")
}

// ObjectsDir returns the root of the content-addressed document store.
func (c *Config) ObjectsDir() string {
	return filepath.Join(c.Paths.ShedDir, "objects")
}

// BundlesDir returns the directory holding sealed bundle artifacts.
func (c *Config) BundlesDir() string {
	return filepath.Join(c.Paths.ShedDir, "bundles")
}

// LogDir returns the directory for log files.
func (c *Config) LogDir() string {
	return filepath.Join(c.Paths.ShedDir, "logs")
}

// EnsureDirectories creates the shed directory tree when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ShedDir, c.ObjectsDir(), c.BundlesDir(), c.LogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return abs, nil
}
