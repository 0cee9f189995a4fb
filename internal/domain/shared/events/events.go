package events

import "time"

type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// Recorder collects events raised while handling a single command.
type Recorder struct {
	pending []DomainEvent
}

func (r *Recorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

// Drain hands over the recorded events and resets the recorder.
func (r *Recorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}

func (r *Recorder) Len() int {
	return len(r.pending)
}

// Envelope carries the fields shared by every event. It never appears in the
// serialized payload; the outbox stores those fields next to it.
type Envelope struct {
	Name      string    `json:"-"`
	Aggregate string    `json:"-"`
	Time      time.Time `json:"-"`
}

func NewEnvelope(name, aggregate string, at time.Time) Envelope {
	return Envelope{Name: name, Aggregate: aggregate, Time: at.UTC()}
}

func (e Envelope) EventName() string {
	return e.Name
}

func (e Envelope) AggregateID() string {
	return e.Aggregate
}

func (e Envelope) OccurredAt() time.Time {
	return e.Time
}
