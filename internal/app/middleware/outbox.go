package middleware

import (
	"context"

	"campstation/internal/app/commands"
	"campstation/internal/app/outbox"
)

// OutboxFlush flushes buffered events once a command has succeeded. A flush
// failure fails the command so the caller retries with the same key.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
