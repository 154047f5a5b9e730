package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeValidation()
	c.normalizeImport()
	c.normalizeBundle()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ShedDir) == "" {
		c.Paths.ShedDir = defaultShedDir
	}
	if c.Paths.ShedDir, err = expandPath(c.Paths.ShedDir); err != nil {
		return fmt.Errorf("paths.shed_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeValidation() {
	if len(c.Validation.Languages) == 0 {
		c.Validation.Languages = defaultLanguages()
		return
	}
	langs := make([]string, 0, len(c.Validation.Languages))
	seen := make(map[string]struct{}, len(c.Validation.Languages))
	for _, lang := range c.Validation.Languages {
		normalized := strings.ToLower(strings.TrimSpace(lang))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		langs = append(langs, normalized)
	}
	if len(langs) == 0 {
		langs = defaultLanguages()
	}
	c.Validation.Languages = langs
}

func (c *Config) normalizeImport() {
	if c.Import.Workers <= 0 {
		c.Import.Workers = defaultImportWorkers
	}
}

func (c *Config) normalizeBundle() {
	c.Bundle.Compression = strings.ToLower(strings.TrimSpace(c.Bundle.Compression))
	if c.Bundle.Compression == "" {
		c.Bundle.Compression = defaultCompression
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
