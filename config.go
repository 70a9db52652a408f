package publish

import "github.com/goliatone/go-publish/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired     = runtimeconfig.ErrDefaultLocaleRequired
	ErrStorageDriverUnknown      = runtimeconfig.ErrStorageDriverUnknown
	ErrPreviewLayoutsRequired    = runtimeconfig.ErrPreviewLayoutsRequired
	ErrPreviewLayoutEmpty        = runtimeconfig.ErrPreviewLayoutEmpty
	ErrCascadeBatchSizeInvalid   = runtimeconfig.ErrCascadeBatchSizeInvalid
	ErrCascadeMaxAttemptsInvalid = runtimeconfig.ErrCascadeMaxAttemptsInvalid
	ErrLoggingProviderRequired   = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	StorageConfig = runtimeconfig.StorageConfig
	CacheConfig   = runtimeconfig.CacheConfig
	PreviewConfig = runtimeconfig.PreviewConfig
	CascadeConfig = runtimeconfig.CascadeConfig
	Features      = runtimeconfig.Features
	LoggingConfig = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
