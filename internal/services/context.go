package services

import "context"

// jobKey is unexported so only this package can read or replace the value.
type jobKey struct{}

// job carries the identifiers that follow one queue message through the
// pipeline. It is copied on every update.
type job struct {
	manualID  string
	requestID string
}

func jobFrom(ctx context.Context) job {
	j, _ := ctx.Value(jobKey{}).(job)
	return j
}

// WithManualID returns ctx tagged with the manual being processed.
// Blank ids leave ctx untouched.
func WithManualID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	j := jobFrom(ctx)
	j.manualID = id
	return context.WithValue(ctx, jobKey{}, j)
}

// ManualIDFromContext reports the manual id set by WithManualID.
func ManualIDFromContext(ctx context.Context) (string, bool) {
	id := jobFrom(ctx).manualID
	return id, id != ""
}

// WithRequestID returns ctx tagged with a correlation id, normally the SQS
// message id.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	j := jobFrom(ctx)
	j.requestID = id
	return context.WithValue(ctx, jobKey{}, j)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	id := jobFrom(ctx).requestID
	return id, id != ""
}
