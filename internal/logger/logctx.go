package logger

import "context"

type (
	// LogCtx holds contextual fields attached to every log record.
	LogCtx struct {
		Action    string
		LabID     string
		RequestID string
	}

	logCtxKeyStruct struct{}
)

var logCtxKey = &logCtxKeyStruct{}

// WithAction adds or updates the Action in the LogCtx within the context.
func WithAction(ctx context.Context, action string) context.Context {
	lc, _ := ctx.Value(logCtxKey).(LogCtx)
	lc.Action = action
	return context.WithValue(ctx, logCtxKey, lc)
}

// WithLabID adds or updates the LabID in the LogCtx within the context.
func WithLabID(ctx context.Context, id string) context.Context {
	lc, _ := ctx.Value(logCtxKey).(LogCtx)
	lc.LabID = id
	return context.WithValue(ctx, logCtxKey, lc)
}

// WithRequestID adds or updates the RequestID in the LogCtx within the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	lc, _ := ctx.Value(logCtxKey).(LogCtx)
	lc.RequestID = id
	return context.WithValue(ctx, logCtxKey, lc)
}

// FromContext returns the LogCtx stored in ctx, if any.
func FromContext(ctx context.Context) LogCtx {
	lc, _ := ctx.Value(logCtxKey).(LogCtx)
	return lc
}
