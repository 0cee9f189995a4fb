package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"campstation/internal/app/commands"
	"campstation/internal/app/outbox"
	"campstation/internal/app/queries"
)

type confirmResult struct {
	Total int64 `json:"total"`
}

type confirmCommand struct {
	key   string
	total int64
}

func (c confirmCommand) Key() string            { return "test.confirm" }
func (c confirmCommand) IdempotencyKey() string { return c.key }
func (c confirmCommand) ResultPrototype() any   { return &confirmResult{} }
func (c confirmCommand) Fingerprint() string    { return strings.Repeat("x", int(c.total%7)) }

type memoryStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (m *memoryStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[key]
	return rec, ok, nil
}

func (m *memoryStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[rec.Key] = rec
	return nil
}

func newConfirmBus(calls *int, fail error) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[confirmCommand, *confirmResult](bus, "test.confirm",
		commands.HandlerFunc[confirmCommand, *confirmResult](func(ctx context.Context, cmd confirmCommand) (*confirmResult, error) {
			*calls++
			if fail != nil {
				return nil, fail
			}
			return &confirmResult{Total: cmd.total}, nil
		}))
	return bus
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	calls := 0
	store := &memoryStore{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(newConfirmBus(&calls, nil), Idempotency(store, nil))

	first, err := commands.Dispatch[confirmCommand, *confirmResult](context.Background(), bus, confirmCommand{key: "k1", total: 100})
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	second, err := commands.Dispatch[confirmCommand, *confirmResult](context.Background(), bus, confirmCommand{key: "k1", total: 100})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
	if first.Total != second.Total {
		t.Fatalf("replayed %d, want %d", second.Total, first.Total)
	}
}

func TestIdempotencyRejectsReusedKey(t *testing.T) {
	calls := 0
	store := &memoryStore{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(newConfirmBus(&calls, nil), Idempotency(store, nil))

	if _, err := bus.Dispatch(context.Background(), confirmCommand{key: "k1", total: 100}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, err := bus.Dispatch(context.Background(), confirmCommand{key: "k1", total: 101}); !errors.Is(err, ErrIdempotencyKeyReused) {
		t.Fatalf("expected ErrIdempotencyKeyReused, got %v", err)
	}
}

func TestIdempotencyDoesNotRememberFailures(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	store := &memoryStore{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(newConfirmBus(&calls, boom), Idempotency(store, nil))

	for i := 0; i < 2; i++ {
		if _, err := bus.Dispatch(context.Background(), confirmCommand{key: "k1", total: 1}); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected boom, got %v", i, err)
		}
	}
	if calls != 2 || len(store.items) != 0 {
		t.Fatalf("failures must not be cached: calls=%d stored=%d", calls, len(store.items))
	}
}

func TestIdempotencySkipsCommandsWithoutKey(t *testing.T) {
	calls := 0
	store := &memoryStore{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(newConfirmBus(&calls, nil), Idempotency(store, nil))
	for i := 0; i < 2; i++ {
		if _, err := bus.Dispatch(context.Background(), confirmCommand{total: 5}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("commands without a key must always run, calls=%d", calls)
	}
}

type flushCounter struct{ flushes int }

func (f *flushCounter) Add(context.Context, outbox.EventRecord) error { return nil }
func (f *flushCounter) Flush(context.Context) error                   { f.flushes++; return nil }

func TestOutboxFlushRunsOnlyAfterSuccess(t *testing.T) {
	box := &flushCounter{}
	calls := 0
	ok := ChainCommands(newConfirmBus(&calls, nil), OutboxFlush(box))
	if _, err := ok.Dispatch(context.Background(), confirmCommand{total: 1}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	failing := ChainCommands(newConfirmBus(&calls, errors.New("nope")), OutboxFlush(box))
	_, _ = failing.Dispatch(context.Background(), confirmCommand{total: 1})
	if box.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", box.flushes)
	}
}

type checkedQuery struct{ valid bool }

func (q checkedQuery) Key() string { return "test.checked" }
func (q checkedQuery) Validate() error {
	if !q.valid {
		return errors.New("invalid query")
	}
	return nil
}

func TestQueryValidationAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	base := queries.NewInMemoryBus()
	queries.RegisterHandler[checkedQuery, string](base, "test.checked",
		queries.HandlerFunc[checkedQuery, string](func(ctx context.Context, q checkedQuery) (string, error) {
			return "ok", nil
		}))
	bus := ChainQueries(base, QueryLogging(logger, func(error) slog.Level { return slog.LevelInfo }), QueryValidation())

	if got, err := queries.Ask[checkedQuery, string](context.Background(), bus, checkedQuery{valid: true}); err != nil || got != "ok" {
		t.Fatalf("Ask = %q, %v", got, err)
	}
	if _, err := bus.Ask(context.Background(), checkedQuery{}); err == nil {
		t.Fatalf("expected validation error")
	}
	out := buf.String()
	if !strings.Contains(out, "query handled") || !strings.Contains(out, "level=INFO msg=\"query failed\"") {
		t.Fatalf("unexpected log output:\n%s", out)
	}
}
