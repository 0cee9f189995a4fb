package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campstation/internal/domain/shared/events"
)

// EventRecord is a serialized domain event waiting for publication.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox stages records during a command. Flush makes them visible to the
// publisher; stores that write through can treat it as a no-op.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder marshals the event body with encoding/json. Envelope fields
// travel in the record, not in the payload.
type JSONEventEncoder struct {
	IDGenerator func() string
	Headers     map[string]string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, fmt.Errorf("outbox: encode %s: %w", ev.EventName(), err)
	}
	newID := e.IDGenerator
	if newID == nil {
		newID = uuid.NewString
	}
	headers := make(map[string]string, len(e.Headers))
	for k, v := range e.Headers {
		headers[k] = v
	}
	return EventRecord{
		ID:         newID(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    headers,
	}, nil
}

// RecordDomainEvents encodes and stages every event. It stops at the first failure.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
