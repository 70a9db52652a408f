package runtimeconfig_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-publish/internal/runtimeconfig"
)

func TestConfigValidate_DefaultsAreValid(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresDefaultLocale(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultLocale = " "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrDefaultLocaleRequired) {
		t.Fatalf("expected ErrDefaultLocaleRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownStorageDriver(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = "mongo"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestConfigValidate_RequiresPreviewLayouts(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Preview.Layouts = nil

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrPreviewLayoutsRequired) {
		t.Fatalf("expected ErrPreviewLayoutsRequired, got %v", err)
	}

	cfg.Preview.Layouts = []string{"desktop", "  "}
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrPreviewLayoutEmpty) {
		t.Fatalf("expected ErrPreviewLayoutEmpty, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidCascadeSettings(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Cascade.BatchSize = 0
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrCascadeBatchSizeInvalid) {
		t.Fatalf("expected ErrCascadeBatchSizeInvalid, got %v", err)
	}

	cfg = runtimeconfig.DefaultConfig()
	cfg.Cascade.MaxAttempts = -1
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrCascadeMaxAttemptsInvalid) {
		t.Fatalf("expected ErrCascadeMaxAttemptsInvalid, got %v", err)
	}
}

func TestConfigValidate_RequiresLoggingProviderWhenFeatureEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "syslog"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}
