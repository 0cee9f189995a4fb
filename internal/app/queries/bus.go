package queries

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Query is a read-only request. Key selects the handler on the bus.
type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// HandlerFunc lets a plain function serve as a Handler.
type HandlerFunc[Q Query, R any] func(ctx context.Context, query Q) (R, error)

func (f HandlerFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

// Bus is what middleware wraps and the HTTP adapters call.
type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("queries: handler not found")
	ErrInvalidQuery    = errors.New("queries: invalid query for handler")
	ErrResultType      = errors.New("queries: result type mismatch")
	ErrNilBus          = errors.New("queries: nil bus")
)

// ResultTypeError names the query whose handler returned a type the caller
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

// Ask sends query through bus and asserts the result to R.
func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, &ResultTypeError{Key: query.Key(), Want: fmt.Sprintf("%T", zero), Got: fmt.Sprintf("%T", res)}
	}
	return value, nil
}

type rawHandler func(ctx context.Context, query Query) (any, error)

// InMemoryBus routes queries to handlers registered at startup.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]rawHandler)}
}

func (b *InMemoryBus) register(key string, h rawHandler) {
	if key == "" {
		panic("queries: empty key registration")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[key]; exists {
		panic(fmt.Sprintf("queries: handler for %q registered twice", key))
	}
	b.handlers[key] = h
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	if query == nil {
		return nil, ErrInvalidQuery
	}
	b.mu.RLock()
	h, ok := b.handlers[query.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, query.Key())
	}
	return h(ctx, query)
}

// Keys lists the registered query keys in sorted order.
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
func RegisterHandler[Q Query, R any](bus *InMemoryBus, key string, handler Handler[Q, R]) {
	if bus == nil {
		panic("queries: nil bus")
	}
	bus.register(key, func(ctx context.Context, raw Query) (any, error) {
		typed, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, key)
		}
		return handler.Handle(ctx, typed)
	})
}
