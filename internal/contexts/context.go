package contexts

import (
	"context"
)

// ContextKey defines the context key type.
type ContextKey string

const (
	// containerContextKey is used to store the context container in the context.
	containerContextKey ContextKey = "context_container"
)

// New installs a fresh, empty container into the context.
// Called once at the very start of every request so that request-local
// values always begin from a clean slate.
func New(ctx context.Context) context.Context {
	return context.WithValue(ctx, containerContextKey, &contextContainer{})
}

// WithTraceID stores the trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	container := getContainer(ctx)
	container.TraceID = &traceID

	return withContainer(ctx, container)
}

// GetTraceID retrieves the trace id from the context.
func GetTraceID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.TraceID != nil {
		return *container.TraceID, true
	}

	return "", false
}

// WithRequestID stores the request id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	container := getContainer(ctx)
	container.RequestID = &requestID

	return withContainer(ctx, container)
}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.RequestID != nil {
		return *container.RequestID, true
	}

	return "", false
}

// WithOperationName stores the operation name in the context.
func WithOperationName(ctx context.Context, name string) context.Context {
	container := getContainer(ctx)
	container.OperationName = &name

	return withContainer(ctx, container)
}

// GetOperationName retrieves the operation name from the context.
func GetOperationName(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.OperationName != nil {
		return *container.OperationName, true
	}

	return "", false
}

// AddError records an error on the request container for access logging.
func AddError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	container := getContainer(ctx)
	container.mu.Lock()
	container.Errors = append(container.Errors, err)
	container.mu.Unlock()
}

// GetErrors returns the errors recorded on the request container.
func GetErrors(ctx context.Context) []error {
	container := getContainer(ctx)
	container.mu.RLock()
	defer container.mu.RUnlock()

	errs := make([]error, len(container.Errors))
	copy(errs, container.Errors)

	return errs
}
