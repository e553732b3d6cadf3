package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

const (
	rootModule     = "autotranslate"
	pipelineModule = "autotranslate.pipeline"
	gatewayModule  = "autotranslate.gateway"
	storeModule    = "autotranslate.store"
	jobsModule     = "autotranslate.jobs"
	commandsModule = "autotranslate.commands"
)

const (
	FieldCollection = "collection"
	FieldDocumentID = "document_id"
	FieldLocale     = "locale"
	FieldFieldPath  = "field_path"
	FieldProvider   = "provider"
	FieldState      = "state"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
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

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// PipelineLogger returns the logger used by the field translator and reconciler.
func PipelineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pipelineModule)
}

// GatewayLogger returns the logger used by translation provider clients.
func GatewayLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, gatewayModule)
}

// StoreLogger returns the logger used by document store adapters and hooks.
func StoreLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storeModule)
}

// JobsLogger returns the logger used by the translation job worker.
func JobsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, jobsModule)
}

// CommandsLogger returns the logger used by command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithLocaleContext enriches logger with the document coordinates of a
// per-locale unit of work. Empty values are ignored.
func WithLocaleContext(logger interfaces.Logger, collection, id, locale string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(collection); trimmed != "" {
		fields[FieldCollection] = trimmed
	}
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		fields[FieldDocumentID] = trimmed
	}
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		fields[FieldLocale] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
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
