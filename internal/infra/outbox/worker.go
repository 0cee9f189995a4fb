package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pending is an outbox record claimed for publication.
type Pending struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
	Attempts   int
}

// Source is the worker's view of an outbox store. Claim returns nil, nil when
// nothing is due.
type Source interface {
	Claim(ctx context.Context, workerID string) (*Pending, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker drains the outbox into the broker as CloudEvents. A failed publish is
// rescheduled with Backoff; it never stops the loop.
type Worker struct {
	Store       Source
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Now         func() time.Time
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger().Warn("outbox claim failed", "worker", w.ID, "error", err)
			}
		}
	}
}

const batchSize = 100

// drain publishes due records until the store has nothing left or a batch is done.
func (w *Worker) drain(ctx context.Context) error {
	for i := 0; i < batchSize; i++ {
		claimed, err := w.ProcessOnce(ctx)
		if err != nil || !claimed {
			return err
		}
	}
	return nil
}

// ProcessOnce claims and publishes a single record. It reports whether a
// record was claimed.
func (w *Worker) ProcessOnce(ctx context.Context) (bool, error) {
	rec, err := w.Store.Claim(ctx, w.ID)
	if err != nil || rec == nil {
		return false, err
	}
	topic := w.topicFor(rec.Name)
	payload, headers, err := w.formatPayload(rec)
	if err == nil {
		err = w.Producer.Publish(ctx, topic, rec.Aggregate, payload, headers)
	}
	if err != nil {
		next := w.nextRetry(rec.Attempts)
		w.logger().Warn("outbox publish failed",
			"event_id", rec.ID, "event", rec.Name, "topic", topic,
			"attempts", rec.Attempts+1, "retry_at", next, "error", err)
		return true, w.Store.MarkFailed(ctx, rec.ID, next, err.Error())
	}
	w.logger().Debug("outbox event published", "event_id", rec.ID, "event", rec.Name, "topic", topic)
	return true, w.Store.MarkSent(ctx, rec.ID)
}

func (w *Worker) formatPayload(rec *Pending) ([]byte, map[string]string, error) {
	var data json.RawMessage = rec.Payload
	if !json.Valid(data) {
		return nil, nil, errors.New("outbox: payload is not valid json")
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          w.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt.UTC().Format(time.RFC3339Nano),
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := rec.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
		"ce_id":        rec.ID,
		"ce_type":      rec.Name + ".v1",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps "pricing.price_confirmed" to "<prefix>pricing.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	switch {
	case attempts < len(w.Backoff):
		return now.Add(w.Backoff[attempts])
	case len(w.Backoff) > 0:
		return now.Add(w.Backoff[len(w.Backoff)-1])
	default:
		return now.Add(5 * time.Second)
	}
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://campstation"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
