package kafka

import (
	"context"
	"slices"

	"github.com/IBM/sarama"
)

// Producer publishes outbox events with an idempotent, fully acknowledged
// sync producer.
type Producer struct {
	sync sarama.SyncProducer
}

func NewProducer(brokers []string, clientID string) (*Producer, error) {
	cfg := sarama.NewConfig()
	if clientID != "" {
		cfg.ClientID = clientID
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{sync: sync}, nil
}

// Publish sends one message keyed by aggregate so that events of a
// reservation stay ordered within a partition.
func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	slices.Sort(names)
	hs := make([]sarama.RecordHeader, 0, len(names))
	for _, k := range names {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(headers[k])})
	}
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: hs,
	}
	_, _, err := p.sync.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}
