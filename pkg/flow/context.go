package flow

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const runInfoKey contextKey = "run_info"

// RunInfo identifies the worker run that owns a context.
type RunInfo struct {
	Worker string
	RunID  uuid.UUID
}

func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey, info)
}

func RunInfoFrom(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoKey).(RunInfo)
	return info, ok
}
