package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldProvider  = "llm_provider"
	FieldModel     = "llm_model"
	FieldDocument  = "document"
	FieldKind      = "document_kind"
	FieldStrategy  = "skill_strategy"
	FieldMatchMode = "match_mode"
)

type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, dropping entries
// with an empty key or value.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	logger = OrNop(logger)

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// LLMFields describes the language model provider and model.
func LLMFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// DocumentFields describes an uploaded document.
func DocumentFields(filename, kind string) []zap.Field {
	return StringFields(
		StringField{Key: FieldDocument, Value: filename},
		StringField{Key: FieldKind, Value: kind},
	)
}
