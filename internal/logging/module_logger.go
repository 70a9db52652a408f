package logging

import (
	"context"

	"github.com/goliatone/go-publish/pkg/interfaces"
)

const (
	rootModule      = "publish"
	draftsModule    = "publish.drafts"
	publisherModule = "publish.publisher"
	usageModule     = "publish.usage"
	previewModule   = "publish.preview"
	jobsModule      = "publish.jobs"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// DraftsLogger returns the logger namespace reserved for the draft store.
func DraftsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, draftsModule)
}

// PublisherLogger returns the logger namespace reserved for the publish coordinator.
func PublisherLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, publisherModule)
}

// UsageLogger returns the logger namespace reserved for the usage index.
func UsageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, usageModule)
}

// PreviewLogger returns the logger namespace reserved for the preview resolver.
func PreviewLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, previewModule)
}

// JobsLogger returns the logger namespace reserved for the republish worker.
func JobsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, jobsModule)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
