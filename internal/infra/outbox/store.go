package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "campstation/internal/app/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// claimLease is how long a claimed record stays hidden from other workers.
const claimLease = time.Minute

// Store keeps outbox records in the pricing_outbox collection. Add writes
// through, so Flush has nothing to do.
type Store struct {
	col *mongo.Collection
}

func NewStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	col := db.Collection("pricing_outbox")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &Store{col: col}, nil
}

func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	doc := eventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       stateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

func (s *Store) Flush(context.Context) error {
	return nil
}

type eventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers"`
	State       string            `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	CreatedAt   time.Time         `bson:"created_at"`
	ClaimedBy   string            `bson:"claimed_by,omitempty"`
	ClaimedAt   time.Time         `bson:"claimed_at,omitempty"`
	SentAt      time.Time         `bson:"sent_at,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
}

// Claim takes the oldest due record. A claim older than the lease is taken
// over, so a crashed worker does not strand its record.
func (s *Store) Claim(ctx context.Context, workerID string) (*Pending, error) {
	now := time.Now().UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"state": bson.M{"$in": bson.A{stateNew, stateFailed}}, "next_attempt_at": bson.M{"$lte": now}},
		bson.M{"state": stateClaimed, "claimed_at": bson.M{"$lte": now.Add(-claimLease)}},
	}}
	update := bson.M{"$set": bson.M{"state": stateClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}})
	var doc eventDocument
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &Pending{
		ID:         doc.ID,
		Name:       doc.Name,
		Payload:    doc.Payload,
		OccurredAt: doc.OccurredAt,
		Aggregate:  doc.Aggregate,
		Headers:    doc.Headers,
		Attempts:   doc.Attempts,
	}, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": stateSent, "sent_at": time.Now().UTC()}})
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	update := bson.M{
		"$set": bson.M{
			"state":           stateFailed,
			"next_attempt_at": next.UTC(),
			"last_error":      errMsg,
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateByID(ctx, id, update)
	return err
}

var (
	_ appoutbox.Outbox = (*Store)(nil)
	_ Source           = (*Store)(nil)
)
