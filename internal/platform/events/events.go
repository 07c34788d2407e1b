// Package events publishes domain events (tenant and catalog changes) to Kafka.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"estatehub/internal/platform/kafka/producer"
	"estatehub/pkg/requestcontext"
)

// Event types.
const (
	TenantCreated       = "tenant.created"
	TenantUpdated       = "tenant.updated"
	TenantStatusChanged = "tenant.status_changed"
	PropertyCreated     = "property.created"
	PropertyUpdated     = "property.updated"
	PropertyDeleted     = "property.deleted"
	UserCreated         = "user.created"
)

// Event is the wire format of a published domain event.
type Event struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	TenantID      string         `json:"tenant_id,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
	RequestID     string         `json:"request_id,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// Publisher emits domain events. Publishing never fails the calling operation.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// New fills the envelope fields of an event from ctx.
func New(ctx context.Context, eventType, aggregateType, aggregateID, tenantID string, data map[string]any) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		TenantID:      tenantID,
		OccurredAt:    requestcontext.Now(ctx).UTC(),
		RequestID:     requestcontext.RequestID(ctx),
		Data:          data,
	}
}

type asyncProducer interface {
	ProduceAsync(ctx context.Context, msg *producer.Message) error
}

// KafkaPublisher writes events as JSON records keyed by tenant so a tenant's
// events stay ordered within one partition.
type KafkaPublisher struct {
	producer asyncProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaPublisher(p asyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic, logger: logger}
}

func (k *KafkaPublisher) Publish(ctx context.Context, e Event) {
	value, err := json.Marshal(e)
	if err != nil {
		k.logger.ErrorContext(ctx, "failed to encode event", "type", e.Type, "error", err)
		return
	}
	key := e.TenantID
	if key == "" {
		key = e.AggregateID
	}
	msg := &producer.Message{
		Topic: k.topic,
		Key:   []byte(key),
		Value: value,
		Headers: map[string]string{
			"event_type":     e.Type,
			"aggregate_type": e.AggregateType,
		},
	}
	if err := k.producer.ProduceAsync(ctx, msg); err != nil {
		k.logger.WarnContext(ctx, "failed to publish event",
			"type", e.Type,
			"aggregate_id", e.AggregateID,
			"request_id", e.RequestID,
			"error", err,
		)
	}
}

// LogPublisher records events in the audit log when Kafka is not configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (l *LogPublisher) Publish(ctx context.Context, e Event) {
	l.logger.InfoContext(ctx, e.Type,
		"log_type", "audit",
		"aggregate_type", e.AggregateType,
		"aggregate_id", e.AggregateID,
		"tenant_id", e.TenantID,
		"request_id", e.RequestID,
	)
}

// Recorder keeps published events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	var out []string
	for _, e := range r.Events() {
		out = append(out, e.Type)
	}
	return out
}
