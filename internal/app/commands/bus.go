package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Command is a state-changing request. Key selects the handler on the bus.
type Command interface {
	Key() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// HandlerFunc lets a plain function serve as a Handler.
type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

// Bus is what middleware wraps and the HTTP adapters call.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("commands: handler not found")
	ErrInvalidCommand  = errors.New("commands: invalid command for handler")
	ErrResultType      = errors.New("commands: result type mismatch")
	ErrNilBus          = errors.New("commands: nil bus")
)

// ResultTypeError names the command whose handler returned a type the caller
// did not ask for. It usually means a handler was registered under the wrong key.
type ResultTypeError struct {
	Key  string
	Want string
	Got  string
}

func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("%s: %s returned %s, caller expected %s", ErrResultType, e.Key, e.Got, e.Want)
}

func (e *ResultTypeError) Is(target error) bool { return target == ErrResultType }

// Dispatch sends cmd through bus and asserts the result to R.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, &ResultTypeError{Key: cmd.Key(), Want: fmt.Sprintf("%T", zero), Got: fmt.Sprintf("%T", res)}
	}
	return value, nil
}

type rawHandler func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus routes commands to handlers registered at startup.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]rawHandler)}
}

func (b *InMemoryBus) register(key string, h rawHandler) {
	if key == "" {
		panic("commands: empty key registration")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[key]; exists {
		panic(fmt.Sprintf("commands: handler for %q registered twice", key))
	}
	b.handlers[key] = h
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if cmd == nil {
		return nil, ErrInvalidCommand
	}
	b.mu.RLock()
	h, ok := b.handlers[cmd.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return h(ctx, cmd)
}

// Keys lists the registered command keys in sorted order.
func (b *InMemoryBus) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.handlers))
	for k := range b.handlers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// RegisterHandler binds a typed handler to key.
func RegisterHandler[C Command, R any](bus *InMemoryBus, key string, handler Handler[C, R]) {
	if bus == nil {
		panic("commands: nil bus")
	}
	bus.register(key, func(ctx context.Context, raw Command) (any, error) {
		typed, ok := raw.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCommand, key)
		}
		return handler.Handle(ctx, typed)
	})
}
