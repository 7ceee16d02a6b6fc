package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaConfig configures the producer.
type KafkaConfig struct {
	Brokers string
	Topic   string
	Acks    string
	Retries int
}

// KafkaPublisher produces events synchronously with franz-go.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(cfg KafkaConfig, logger zerolog.Logger) (*KafkaPublisher, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic not configured")
	}

	var acks kgo.Acks
	switch cfg.Acks {
	case "0":
		acks = kgo.NoAck()
	case "1":
		acks = kgo.LeaderAck()
	default:
		acks = kgo.AllISRAcks()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(strings.Split(cfg.Brokers, ",")...),
		kgo.RequiredAcks(acks),
		kgo.RecordRetries(cfg.Retries),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.AllowAutoTopicCreation(),
	}
	if cfg.Acks == "0" {
		// franz-go requires idempotency off without acks.
		opts = append(opts, kgo.DisableIdempotentWrite())
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &KafkaPublisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

func (p *KafkaPublisher) PublishEnrollmentCompleted(ctx context.Context, evt EnrollmentCompleted) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("producer is closed")
	}

	record, err := newRecord(p.topic, evt)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", TypeEnrollmentCompleted, err)
	}
	p.logger.Debug().Str("lead_id", evt.LeadID).Str("topic", p.topic).Msg("enrollment event published")
	return nil
}

// Healthy pings the brokers.
func (p *KafkaPublisher) Healthy(ctx context.Context) bool {
	return p.client.Ping(ctx) == nil
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("kafka producer closed with unflushed records")
	}
	p.client.Close()
	return nil
}
