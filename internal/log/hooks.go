package log

import (
	"context"

	"github.com/tenonhq/tenon/internal/contexts"
)

// Hook contributes fields derived from the context to every log entry.
type Hook interface {
	Apply(ctx context.Context, msg string) []Field
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, msg string) []Field

func (f HookFunc) Apply(ctx context.Context, msg string) []Field {
	return f(ctx, msg)
}

var defaultHooks = []Hook{HookFunc(traceFields)}

// traceFields pulls the trace id and operation name from the request container.
func traceFields(ctx context.Context, _ string) []Field {
	if ctx == nil {
		return nil
	}

	var fields []Field

	if traceID, ok := contexts.GetTraceID(ctx); ok {
		fields = append(fields, String("trace_id", traceID))
	}

	if opName, ok := contexts.GetOperationName(ctx); ok {
		fields = append(fields, String("operation_name", opName))
	}

	return fields
}
