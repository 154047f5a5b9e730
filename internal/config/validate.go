package config

import (
	"errors"
	"fmt"
	"strings"
)

var validCompressions = map[string]struct{}{
	"none": {},
	"gzip": {},
	"zstd": {},
	"lz4":  {},
}

// Validate checks the configuration for values the pipeline cannot
// operate with. It is called by Load after normalization.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.ShedDir == "" {
		problems = append(problems, "paths.shed_dir must be set")
	}
	if c.Validation.MinLength < 0 {
		problems = append(problems, "validation.min_length must not be negative")
	}
	if c.Validation.MaxLength > 0 && c.Validation.MaxLength < c.Validation.MinLength {
		problems = append(problems, "validation.max_length must not be below validation.min_length")
	}
	if c.Validation.MaxInvalidRatio < 0 || c.Validation.MaxInvalidRatio > 1 {
		problems = append(problems, "validation.max_invalid_ratio must be within [0, 1]")
	}
	if c.Validation.LanguageConfidence <= 0 {
		problems = append(problems, "validation.language_confidence must be positive")
	}
	if c.Import.Workers < 1 {
		problems = append(problems, "import.workers must be at least 1")
	}
	if _, ok := validCompressions[c.Bundle.Compression]; !ok {
		problems = append(problems, fmt.Sprintf("bundle.compression %q is not one of none, gzip, zstd, lz4", c.Bundle.Compression))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
