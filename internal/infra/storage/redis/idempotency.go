package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"campstation/internal/app/middleware"
)

const defaultPrefix = "campstation:idempotency"

// IdempotencyStore keeps command results in Redis with a TTL, so replays work
// across instances.
type IdempotencyStore struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewIdempotencyStore(client goredis.UniversalClient, prefix string, ttl time.Duration) *IdempotencyStore {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &IdempotencyStore{client: client, prefix: prefix, ttl: ttl}
}

type record struct {
	Command     string    `json:"command"`
	Fingerprint string    `json:"fingerprint"`
	Payload     []byte    `json:"payload"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{
		Key:         key,
		Command:     rec.Command,
		Fingerprint: rec.Fingerprint,
		Payload:     rec.Payload,
		OccurredAt:  rec.OccurredAt,
	}, true, nil
}

// Save keeps the first result stored under a key; a concurrent duplicate is
// dropped.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(record{
		Command:     rec.Command,
		Fingerprint: rec.Fingerprint,
		Payload:     rec.Payload,
		OccurredAt:  rec.OccurredAt,
	})
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, s.key(rec.Key), raw, s.ttl).Err()
}

func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *IdempotencyStore) key(k string) string {
	return s.prefix + ":" + k
}

// NewClient connects to addr and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
