package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campstation/internal/app/commands"
)

// IdempotentCommand opts a command into replay protection. ResultPrototype must
// return a pointer to a value of the handler's result type.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

// Fingerprinted commands let the middleware detect a key reused with a
// different body.
type Fingerprinted interface {
	Fingerprint() string
}

type IdempotencyRecord struct {
	Key         string
	Command     string
	Fingerprint string
	Payload     []byte
	OccurredAt  time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var (
	ErrIdempotencyKeyReused = errors.New("middleware: idempotency key reused with a different request")
	errMissingPrototype     = errors.New("middleware: idempotent command requires result prototype")
)

// Idempotency replays the stored result for a known key. Only successful
// results are stored; a failed attempt may be retried under the same key.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			fingerprint := ""
			if fp, ok := cmd.(Fingerprinted); ok {
				fingerprint = fp.Fingerprint()
			}

			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("middleware: idempotency lookup: %w", err)
			}
			if found {
				if rec.Command != cmd.Key() || rec.Fingerprint != fingerprint {
					return nil, ErrIdempotencyKeyReused
				}
				return replay(codec, idCmd.ResultPrototype(), rec.Payload)
			}

			result, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			record := IdempotencyRecord{
				Key:         key,
				Command:     cmd.Key(),
				Fingerprint: fingerprint,
				OccurredAt:  time.Now().UTC(),
			}
			if result != nil {
				if record.Payload, err = codec.Encode(result); err != nil {
					return nil, err
				}
			}
			if err := store.Save(ctx, record); err != nil {
				return nil, fmt.Errorf("middleware: idempotency save: %w", err)
			}
			return result, nil
		})
	}
}

func replay(codec ResultCodec, proto any, payload []byte) (any, error) {
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(payload) == 0 {
		return nil, nil
	}
	if err := codec.Decode(payload, proto); err != nil {
		return nil, err
	}
	return proto, nil
}
