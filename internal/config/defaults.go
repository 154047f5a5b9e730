package config

const (
	defaultShedDir = "~/.local/share/docshed"
	defaultAPIBind = "127.0.0.1:7171"

	defaultMinLength          = 20
	defaultMaxLength          = 65536
	defaultMaxInvalidRatio    = 0.05
	defaultLanguageConfidence = 0.65

	defaultImportWorkers = 4

	defaultCompression = "gzip"
)

func defaultLanguages() []string {
	return []string{"en", "de"}
}

// Default returns the configuration used when no file overrides a key.
func Default() Config {
	return Config{
		Paths: Paths{
			ShedDir: defaultShedDir,
			APIBind: defaultAPIBind,
		},
		Validation: Validation{
			MinLength:          defaultMinLength,
			MaxLength:          defaultMaxLength,
			MaxInvalidRatio:    defaultMaxInvalidRatio,
			Languages:          defaultLanguages(),
			LanguageConfidence: defaultLanguageConfidence,
			StrictLanguage:     false,
		},
		Import: Import{
			Workers:     defaultImportWorkers,
			AutoPromote: true,
		},
		Bundle: Bundle{
			Compression: defaultCompression,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
