package main

import (
	"log/slog"
	"strings"
	"sync"

	"docshed/internal/config"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
	"docshed/internal/logging"
	"docshed/internal/validator"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			logger = logging.Discard()
		}
		c.logger = logger
	})
	return c.logger, nil
}

// withStores opens the ledger and document store and hands them to fn,
// closing the ledger afterwards.
func (c *commandContext) withStores(fn func(*config.Config, *ledger.Store, *docstore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := docstore.New(cfg.ObjectsDir())
	if err != nil {
		return err
	}
	return fn(cfg, store, docs)
}

func (c *commandContext) newValidator(cfg *config.Config) (*validator.Validator, error) {
	return validator.New(validator.Config{
		MinLength:          cfg.Validation.MinLength,
		MaxLength:          cfg.Validation.MaxLength,
		MaxInvalidRatio:    cfg.Validation.MaxInvalidRatio,
		Languages:          cfg.Validation.Languages,
		LanguageConfidence: cfg.Validation.LanguageConfidence,
		StrictLanguage:     cfg.Validation.StrictLanguage,
	})
}
