package logger

import (
	"context"

	"go.uber.org/zap"
)

// Field names shared by every component's structured logs.
const (
	// Components
	FieldComponent = "component"
	FieldHandler   = "handler"
	FieldKind      = "kind" // journal or category handler

	// Operations
	FieldOperation = "operation"
	FieldQuery     = "query"
	FieldRequestID = "request_id"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount     = "count"
	FieldRows      = "rows"
	FieldHandlers  = "handlers"
	FieldBatchSize = "batch_size"

	// Backends
	FieldPath     = "path"
	FieldEndpoint = "endpoint"

	// Domain
	FieldIdentifier = "identifier"
	FieldCategory   = "category"
	FieldQuartile   = "quartile"
	FieldArea       = "area"
)

type ctxKey struct{}

// ctxFields is what a request carries into every log line it produces.
type ctxFields struct {
	requestID string
	component string
}

func fieldsOf(ctx context.Context) ctxFields {
	f, _ := ctx.Value(ctxKey{}).(ctxFields)
	return f
}

// WithRequestID tags every log line derived from ctx with requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	f := fieldsOf(ctx)
	f.requestID = requestID
	return context.WithValue(ctx, ctxKey{}, f)
}

// WithComponent tags every log line derived from ctx with component.
func WithComponent(ctx context.Context, component string) context.Context {
	f := fieldsOf(ctx)
	f.component = component
	return context.WithValue(ctx, ctxKey{}, f)
}

// FromContext returns base enriched with the fields carried by ctx.
// A nil base falls back to the global Logger.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	f := fieldsOf(ctx)
	var kv []interface{}
	if f.requestID != "" {
		kv = append(kv, FieldRequestID, f.requestID)
	}
	if f.component != "" {
		kv = append(kv, FieldComponent, f.component)
	}
	if len(kv) == 0 {
		return base
	}
	return base.With(kv...)
}
