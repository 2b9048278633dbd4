package logging

import (
	"context"
	"log/slog"

	"systemqa/internal/services"
)

// Structured field keys shared by every component.
const (
	FieldComponent     = "component"
	FieldManualID      = "manual_id"
	FieldStepID        = "step_id"
	FieldCorrelationID = "correlation_id"
	// FieldEventType is a stable, machine-filterable event name.
	FieldEventType = "event_type"
	// FieldErrorHint is the operator's next step.
	FieldErrorHint = "error_hint"
	// FieldErrorKind is the services error classification.
	FieldErrorKind = "error_kind"
	// FieldImpact is the consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields returns the manual and correlation ids carried by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := services.ManualIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldManualID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns logger extended with ContextFields(ctx).
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(toArgs(fields)...)
}

// NewComponentLogger tags logger with a component name. A nil logger yields a
// no-op base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}
