package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "campstation/internal/app/outbox"
	infraoutbox "campstation/internal/infra/outbox"
)

type outboxEntry struct {
	rec       appoutbox.EventRecord
	attempts  int
	nextAt    time.Time
	claimedBy string
	sent      bool
	lastError string
}

// DefaultOutboxCapacity bounds the unsent records kept in memory.
const DefaultOutboxCapacity = 10_000

// Outbox stages records until Flush and then serves them to the worker. Used
// when no Mongo outbox is configured; records do not survive a restart. Once
// capacity is reached the oldest unclaimed records are dropped.
type Outbox struct {
	mu       sync.Mutex
	staged   []appoutbox.EventRecord
	ready    []*outboxEntry
	capacity int
	dropped  int
	now      func() time.Time
}

func NewOutbox() *Outbox {
	return NewBoundedOutbox(DefaultOutboxCapacity)
}

func NewBoundedOutbox(capacity int) *Outbox {
	if capacity <= 0 {
		capacity = DefaultOutboxCapacity
	}
	return &Outbox{capacity: capacity, now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.staged = append(o.staged, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, rec := range o.staged {
		o.ready = append(o.ready, &outboxEntry{rec: rec, nextAt: now})
	}
	o.staged = nil
	o.evict()
	return nil
}

// evict drops the oldest unclaimed records above capacity. Claimed records stay
// so the worker can still mark them.
func (o *Outbox) evict() {
	excess := len(o.ready) - o.capacity
	if excess <= 0 {
		return
	}
	kept := o.ready[:0]
	for _, e := range o.ready {
		if excess > 0 && e.claimedBy == "" {
			excess--
			o.dropped++
			continue
		}
		kept = append(kept, e)
	}
	clear(o.ready[len(kept):])
	o.ready = kept
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Pending, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, e := range o.ready {
		if e.sent || e.claimedBy != "" || e.nextAt.After(now) {
			continue
		}
		e.claimedBy = workerID
		return &infraoutbox.Pending{
			ID:         e.rec.ID,
			Name:       e.rec.Name,
			Payload:    append([]byte(nil), e.rec.Payload...),
			OccurredAt: e.rec.OccurredAt,
			Aggregate:  e.rec.Aggregate,
			Headers:    e.rec.Headers,
			Attempts:   e.attempts,
		}, nil
	}
	return nil, nil
}

// MarkSent drops the record.
func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := o.ready[:0]
	for _, e := range o.ready {
		if e.rec.ID != id {
			kept = append(kept, e)
		}
	}
	o.ready = kept
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.ready {
		if e.rec.ID == id {
			e.attempts++
			e.nextAt = next
			e.claimedBy = ""
			e.lastError = errMsg
		}
	}
	return nil
}

// Pending reports staged and unsent records, for readiness output and tests.
func (o *Outbox) Pending() (staged, ready int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.staged), len(o.ready)
}

// Dropped counts records evicted because the outbox was full.
func (o *Outbox) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

var (
	_ appoutbox.Outbox   = (*Outbox)(nil)
	_ infraoutbox.Source = (*Outbox)(nil)
)
