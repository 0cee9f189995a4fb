package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestPublishSendsKeyedMessage(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	mock := mocks.NewSyncProducer(t, cfg)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "pricing.events.v1" {
			return errors.New("wrong topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "r-1" {
			return errors.New("wrong key " + string(key))
		}
		if len(msg.Headers) != 2 || string(msg.Headers[0].Key) != "a" || string(msg.Headers[1].Key) != "content-type" {
			return errors.New("headers not sorted")
		}
		return nil
	})
	p := &Producer{sync: mock}
	err := p.Publish(context.Background(), "pricing.events.v1", "r-1", []byte(`{}`),
		map[string]string{"content-type": "application/cloudevents+json", "a": "1"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	mock := mocks.NewSyncProducer(t, cfg)
	p := &Producer{sync: mock}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, "t", "k", nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	_ = p.Close()
}
