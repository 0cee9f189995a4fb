package middleware

import (
	"context"

	"campstation/internal/app/commands"
	"campstation/internal/app/queries"
)

// CommandMiddleware decorates a command bus.
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware decorates a query bus.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps base so that mws[0] runs first.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// ChainQueries wraps base so that mws[0] runs first.
func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

func wrapCommand(next commands.Bus) commandFunc {
	return next.Dispatch
}

type queryFunc func(ctx context.Context, q queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

func wrapQuery(next queries.Bus) queryFunc {
	return next.Ask
}
