package middleware

import (
	"context"
	"log/slog"
	"time"

	"campstation/internal/app/commands"
	"campstation/internal/app/queries"
)

// Outcome classifies an error for log levels. Expected business rejections are
// logged at info so that only faults reach warn and above.
type Outcome func(err error) slog.Level

func CommandLogging(logger *slog.Logger, outcome Outcome) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			logResult(ctx, logger, outcome, "command", cmd.Key(), start, err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger, outcome Outcome) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			logResult(ctx, logger, outcome, "query", q.Key(), start, err)
			return res, err
		})
	}
}

func logResult(ctx context.Context, logger *slog.Logger, outcome Outcome, kind, key string, start time.Time, err error) {
	attrs := []any{kind, key, "duration", time.Since(start)}
	if err == nil {
		logger.DebugContext(ctx, kind+" handled", attrs...)
		return
	}
	level := slog.LevelError
	if outcome != nil {
		level = outcome(err)
	}
	logger.Log(ctx, level, kind+" failed", append(attrs, "error", err)...)
}
