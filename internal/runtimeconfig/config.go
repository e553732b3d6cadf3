package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var ErrDefaultLocaleRequired = errors.New("autotranslate config: default locale is required")
var ErrLocaleInvalid = errors.New("autotranslate config: locale code is invalid")
var ErrDefaultLocaleNotConfigured = errors.New("autotranslate config: default locale must be listed in i18n locales")
var ErrTranslationProviderUnknown = errors.New("autotranslate config: translation provider is invalid")
var ErrLambdaFunctionRequired = errors.New("autotranslate config: lambda function is required for the lambda provider")
var ErrFormalityInvalid = errors.New("autotranslate config: formality is invalid")
var ErrConcurrencyInvalid = errors.New("autotranslate config: max concurrent locales must be zero or positive")
var ErrCommandTimeoutInvalid = errors.New("autotranslate config: command timeout must be zero or positive")
var ErrCollectionNameRequired = errors.New("autotranslate config: collection name is required")
var ErrCollectionDuplicate = errors.New("autotranslate config: collection is declared twice")
var ErrStorageProviderUnknown = errors.New("autotranslate config: storage provider is invalid")
var ErrStorageDriverUnknown = errors.New("autotranslate config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("autotranslate config: storage dsn is required for postgres")
var ErrCacheRequiresBunStorage = errors.New("autotranslate config: cache requires bun storage")
var ErrJobsAttemptsInvalid = errors.New("autotranslate config: job max attempts must be zero or positive")
var ErrLoggingProviderRequired = errors.New("autotranslate config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("autotranslate config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("autotranslate config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("autotranslate config: logging format is invalid")

type Config struct {
	DefaultLocale string             `yaml:"default_locale"`
	I18N          I18NConfig         `yaml:"i18n"`
	Translation   TranslationConfig  `yaml:"translation"`
	Collections   []CollectionConfig `yaml:"collections"`
	Storage       StorageConfig      `yaml:"storage"`
	Cache         CacheConfig        `yaml:"cache"`
	Jobs          JobsConfig         `yaml:"jobs"`
	Features      Features           `yaml:"features"`
	Logging       LoggingConfig      `yaml:"logging"`
}

type I18NConfig struct {
	// Locales is the ordered set of locale codes; every locale other than
	// the source is a translation target.
	Locales []string `yaml:"locales"`
}

type TranslationConfig struct {
	Provider             string        `yaml:"provider"`
	APIKey               string        `yaml:"api_key"`
	APIKeyEnv            string        `yaml:"api_key_env"`
	BaseURL              string        `yaml:"base_url"`
	Timeout              time.Duration `yaml:"timeout"`
	Formality            string        `yaml:"formality"`
	PreserveFormatting   bool          `yaml:"preserve_formatting"`
	MaxConcurrentLocales int           `yaml:"max_concurrent_locales"`
	// CommandTimeout bounds a whole translate invocation. Zero means no deadline.
	CommandTimeout time.Duration `yaml:"command_timeout"`
	LambdaFunction string        `yaml:"lambda_function"`
	LambdaRegion   string        `yaml:"lambda_region"`
	// Dictionary seeds the dictionary provider, keyed by target locale then source text.
	Dictionary map[string]map[string]string `yaml:"dictionary"`
}

type CollectionConfig struct {
	Name          string   `yaml:"name"`
	Fields        []string `yaml:"fields"`
	SlugSource    string   `yaml:"slug_source"`
	SlugField     string   `yaml:"slug_field"`
	AutoTranslate bool     `yaml:"auto_translate"`
}

type StorageConfig struct {
	Provider string `yaml:"provider"`
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
}

type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

type JobsConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	BatchSize    int           `yaml:"batch_size"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type Features struct {
	Logger        bool `yaml:"logger"`
	AutoTranslate bool `yaml:"auto_translate"`
	Slugs         bool `yaml:"slugs"`
}

type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

func DefaultConfig() Config {
	return Config{
		DefaultLocale: "en",
		I18N: I18NConfig{
			Locales: []string{"en"},
		},
		Translation: TranslationConfig{
			Provider:  "deepl",
			APIKeyEnv: "DEEPL_API_KEY",
			Timeout:   30 * time.Second,
		},
		Storage: StorageConfig{
			Provider: "memory",
			Driver:   "sqlite",
		},
		Cache: CacheConfig{
			DefaultTTL: time.Minute,
		},
		Jobs: JobsConfig{
			MaxAttempts:  3,
			RetryDelay:   30 * time.Second,
			BatchSize:    50,
			PollInterval: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Load reads a YAML file over DefaultConfig and validates the result.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("autotranslate config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("autotranslate config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	defaultLocale := strings.TrimSpace(cfg.DefaultLocale)
	if defaultLocale == "" {
		return ErrDefaultLocaleRequired
	}
	for _, code := range append([]string{defaultLocale}, cfg.I18N.Locales...) {
		if _, err := language.Parse(strings.TrimSpace(code)); err != nil {
			return fmt.Errorf("%w: %q", ErrLocaleInvalid, code)
		}
	}
	if len(cfg.I18N.Locales) > 0 && !slices.ContainsFunc(cfg.I18N.Locales, func(code string) bool {
		return strings.EqualFold(strings.TrimSpace(code), defaultLocale)
	}) {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleNotConfigured, defaultLocale)
	}

	switch provider := normalize(cfg.Translation.Provider); provider {
	case "", "deepl", "dictionary":
	case "lambda":
		if strings.TrimSpace(cfg.Translation.LambdaFunction) == "" {
			return ErrLambdaFunctionRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrTranslationProviderUnknown, provider)
	}
	if formality := normalize(cfg.Translation.Formality); formality != "" && !isSupportedFormality(formality) {
		return fmt.Errorf("%w: %s", ErrFormalityInvalid, formality)
	}
	if cfg.Translation.MaxConcurrentLocales < 0 {
		return ErrConcurrencyInvalid
	}
	if cfg.Translation.CommandTimeout < 0 {
		return ErrCommandTimeoutInvalid
	}

	seen := map[string]bool{}
	for _, collection := range cfg.Collections {
		name := normalize(collection.Name)
		if name == "" {
			return ErrCollectionNameRequired
		}
		if seen[name] {
			return fmt.Errorf("%w: %s", ErrCollectionDuplicate, name)
		}
		seen[name] = true
	}

	storageProvider := normalize(cfg.Storage.Provider)
	switch storageProvider {
	case "", "memory":
	case "bun":
		switch driver := normalize(cfg.Storage.Driver); driver {
		case "", "sqlite":
		case "postgres":
			if strings.TrimSpace(cfg.Storage.DSN) == "" {
				return ErrStorageDSNRequired
			}
		default:
			return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, driver)
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, storageProvider)
	}
	if cfg.Cache.Enabled && storageProvider != "bun" {
		return ErrCacheRequiresBunStorage
	}
	if cfg.Jobs.MaxAttempts < 0 {
		return ErrJobsAttemptsInvalid
	}

	if cfg.Features.Logger {
		provider := normalize(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

// Collection returns the configuration registered for name.
func (cfg Config) Collection(name string) (CollectionConfig, bool) {
	key := normalize(name)
	for _, collection := range cfg.Collections {
		if normalize(collection.Name) == key {
			return collection, true
		}
	}
	return CollectionConfig{}, false
}

// CollectionFields returns the translatable field paths registered for name.
func (cfg Config) CollectionFields(name string) []string {
	collection, ok := cfg.Collection(name)
	if !ok {
		return nil
	}
	return slices.Clone(collection.Fields)
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedFormality(formality string) bool {
	switch formality {
	case "default", "more", "less", "prefer_more", "prefer_less":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
