package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldPredictionID = "prediction_id"
	FieldProbability  = "probability"
	FieldTier         = "tier"
	FieldRole         = "role"
	FieldModelKind    = "model_kind"
	FieldModelPath    = "model_path"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
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

// WithFields attaches fields to the logger, falling back to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// ModelFields describes the loaded classifier artifact.
func ModelFields(kind, path string) []zap.Field {
	return StringFields(
		StringField{Key: FieldModelKind, Value: kind},
		StringField{Key: FieldModelPath, Value: path},
	)
}

// WithModelFields attaches the model description to the logger.
func WithModelFields(logger *zap.Logger, kind, path string) *zap.Logger {
	return WithFields(logger, ModelFields(kind, path)...)
}
