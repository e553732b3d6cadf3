package autotranslate

import "github.com/goliatone/go-autotranslate/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired      = runtimeconfig.ErrDefaultLocaleRequired
	ErrLocaleInvalid              = runtimeconfig.ErrLocaleInvalid
	ErrDefaultLocaleNotConfigured = runtimeconfig.ErrDefaultLocaleNotConfigured
	ErrTranslationProviderUnknown = runtimeconfig.ErrTranslationProviderUnknown
	ErrLambdaFunctionRequired     = runtimeconfig.ErrLambdaFunctionRequired
	ErrFormalityInvalid           = runtimeconfig.ErrFormalityInvalid
	ErrConcurrencyInvalid         = runtimeconfig.ErrConcurrencyInvalid
	ErrCommandTimeoutInvalid      = runtimeconfig.ErrCommandTimeoutInvalid
	ErrCollectionNameRequired     = runtimeconfig.ErrCollectionNameRequired
	ErrCollectionDuplicate        = runtimeconfig.ErrCollectionDuplicate
	ErrStorageProviderUnknown     = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDriverUnknown       = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired         = runtimeconfig.ErrStorageDSNRequired
	ErrCacheRequiresBunStorage    = runtimeconfig.ErrCacheRequiresBunStorage
	ErrJobsAttemptsInvalid        = runtimeconfig.ErrJobsAttemptsInvalid
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config            = runtimeconfig.Config
	I18NConfig        = runtimeconfig.I18NConfig
	TranslationConfig = runtimeconfig.TranslationConfig
	CollectionConfig  = runtimeconfig.CollectionConfig
	StorageConfig     = runtimeconfig.StorageConfig
	CacheConfig       = runtimeconfig.CacheConfig
	JobsConfig        = runtimeconfig.JobsConfig
	Features          = runtimeconfig.Features
	LoggingConfig     = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
