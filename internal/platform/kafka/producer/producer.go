// Package producer publishes records to Kafka with franz-go.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"estatehub/internal/platform/config"
	"estatehub/internal/platform/kafka"
)

var ErrClosed = errors.New("producer is closed")

const flushTimeout = 30 * time.Second

type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

func (m *Message) record() *kgo.Record {
	rec := &kgo.Record{Topic: m.Topic, Key: m.Key, Value: m.Value}
	for k, v := range m.Headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return rec
}

// Producer is safe for concurrent use. After Close every call returns ErrClosed.
type Producer struct {
	client *kgo.Client
	logger *slog.Logger
	closed atomic.Bool
}

func New(cfg config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	brokers := kafka.ParseBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, kafka.ErrNoBrokers
	}
	client, err := kgo.NewClient(clientOptions(brokers, cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{client: client, logger: logger}, nil
}

func clientOptions(brokers []string, cfg config.KafkaConfig) []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RecordRetries(cfg.Retries),
		kgo.ProducerBatchMaxBytes(16 << 10),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.AllowAutoTopicCreation(),
	}
	switch cfg.Acks {
	case "0":
		// Idempotent writes need acks from all in-sync replicas.
		opts = append(opts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	case "1":
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	default:
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	}
	if cfg.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}
	return opts
}

// Produce blocks until the broker acknowledges msg.
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := p.client.ProduceSync(ctx, msg.record()).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", msg.Topic, err)
	}
	return nil
}

// ProduceAsync buffers msg and returns at once. Delivery continues after ctx
// is cancelled and failures are only logged.
func (p *Producer) ProduceAsync(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrClosed
	}
	p.client.Produce(context.WithoutCancel(ctx), msg.record(), func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("kafka delivery failed", "topic", r.Topic, "partition", r.Partition, "error", err)
		}
	})
	return nil
}

// Close flushes buffered records, waiting at most flushTimeout.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("kafka producer closed with unflushed records", "error", err)
	}
	p.client.Close()
	return nil
}

// Health matches health.CheckFunc.
func (p *Producer) Health(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.client.Ping(ctx)
}
