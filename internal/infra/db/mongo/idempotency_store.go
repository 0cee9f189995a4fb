package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campstation/internal/app/middleware"
)

// IdempotencyStore persists confirmation results; a TTL index on created_at
// expires them.
type IdempotencyStore struct {
	col *mongo.Collection
}

func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	col := db.Collection("pricing_idempotency")
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	})
	if err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{
		Key:         doc.Key,
		Command:     doc.Command,
		Fingerprint: doc.Fingerprint,
		Payload:     doc.Payload,
		OccurredAt:  doc.OccurredAt,
	}, true, nil
}

// Save inserts only when the key is new; the first stored result wins.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	fields := bson.M{
		"command":     rec.Command,
		"fingerprint": rec.Fingerprint,
		"payload":     rec.Payload,
		"occurred_at": rec.OccurredAt,
		"created_at":  time.Now().UTC(),
	}
	_, err := s.col.UpdateByID(ctx, rec.Key, bson.M{"$setOnInsert": fields}, options.Update().SetUpsert(true))
	return err
}

type idempotencyDocument struct {
	Key         string    `bson:"_id"`
	Command     string    `bson:"command"`
	Fingerprint string    `bson:"fingerprint"`
	Payload     []byte    `bson:"payload"`
	OccurredAt  time.Time `bson:"occurred_at"`
	CreatedAt   time.Time `bson:"created_at"`
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
