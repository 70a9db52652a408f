package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrDefaultLocaleRequired = errors.New("publish config: default locale is required")
var ErrStorageDriverUnknown = errors.New("publish config: storage driver is invalid")
var ErrPreviewLayoutsRequired = errors.New("publish config: at least one preview layout is required")
var ErrPreviewLayoutEmpty = errors.New("publish config: preview layouts cannot be blank")
var ErrCascadeBatchSizeInvalid = errors.New("publish config: cascade batch size must be positive")
var ErrCascadeMaxAttemptsInvalid = errors.New("publish config: cascade max attempts must be positive")
var ErrLoggingProviderRequired = errors.New("publish config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("publish config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("publish config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("publish config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the publish module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled       bool
	DefaultLocale string
	Storage       StorageConfig
	Cache         CacheConfig
	Preview       PreviewConfig
	Cascade       CascadeConfig
	Features      Features
	Logging       LoggingConfig
}

// StorageConfig names the persistence driver backing the repositories.
type StorageConfig struct {
	Driver string
}

// CacheConfig captures read-through cache behaviour for the bun repositories.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// PreviewConfig lists the layout variants the preview resolver knows about.
type PreviewConfig struct {
	Layouts []string
}

// CascadeConfig tunes the global-block republish pipeline.
type CascadeConfig struct {
	BatchSize   int
	MaxAttempts int
}

// Features toggles module functionality.
type Features struct {
	Cascade  bool
	Commands bool
	Logger   bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns opinionated defaults: in-memory storage with the
// cascade enabled, previewing desktop and mobile layouts.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		DefaultLocale: "en",
		Storage: StorageConfig{
			Driver: "memory",
		},
		Cache: CacheConfig{
			Enabled:    false,
			DefaultTTL: time.Minute,
		},
		Preview: PreviewConfig{
			Layouts: []string{"desktop", "mobile"},
		},
		Cascade: CascadeConfig{
			BatchSize:   50,
			MaxAttempts: 3,
		},
		Features: Features{
			Cascade: true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.DefaultLocale) == "" {
		return ErrDefaultLocaleRequired
	}
	if driver := normalizeDriver(cfg.Storage.Driver); driver != "memory" && driver != "bun" {
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}
	if len(cfg.Preview.Layouts) == 0 {
		return ErrPreviewLayoutsRequired
	}
	for _, layout := range cfg.Preview.Layouts {
		if strings.TrimSpace(layout) == "" {
			return ErrPreviewLayoutEmpty
		}
	}
	if cfg.Cascade.BatchSize <= 0 {
		return ErrCascadeBatchSizeInvalid
	}
	if cfg.Cascade.MaxAttempts <= 0 {
		return ErrCascadeMaxAttemptsInvalid
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
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

func normalizeDriver(driver string) string {
	return strings.ToLower(strings.TrimSpace(driver))
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
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
