package logging

import (
	"maps"

	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// WithFields attaches structured fields to logger. Nil loggers and empty maps
// are returned unchanged.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	return logger.WithFields(maps.Clone(fields))
}
