package outbox

import (
	"context"
	"log/slog"
)

// LogProducer writes events to the structured log. It stands in for Kafka when
// no brokers are configured so the outbox still drains.
type LogProducer struct {
	Logger *slog.Logger
	Level  slog.Level
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(ctx, p.Level, "event published to log",
		"topic", topic,
		"key", key,
		"ce_id", headers["ce_id"],
		"ce_type", headers["ce_type"],
		"payload", string(payload),
	)
	return nil
}

var _ Producer = LogProducer{}
