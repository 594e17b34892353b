package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/polkiloo/smmpanel/internal/domain/model"
)

// publishTimeout bounds enqueueing a message and each broker write.
const publishTimeout = 2 * time.Second

// Publisher delivers order lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event model.OrderEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Payload is the JSON value written to the topic.
type Payload struct {
	OrderID    int64     `json:"order_id"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KafkaPublisher writes one message per transition keyed by order id, so all
// events of an order land on the same partition in order. Writes are
// asynchronous: Publish only enqueues and delivery failures are logged.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher creates an async writer acknowledged by all replicas.
// Close flushes buffered messages.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{topic: topic, logger: logger}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  true,
		Completion:             p.completed,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		WriteTimeout:           publishTimeout,
		AllowAutoTopicCreation: true,
	}
	return p
}

func (p *KafkaPublisher) completed(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	keys := make([]string, 0, len(messages))
	for _, m := range messages {
		keys = append(keys, string(m.Key))
	}
	p.logger.Warn("order events not delivered",
		slog.String("topic", p.topic),
		slog.Any("orders", keys),
		slog.String("error", err.Error()))
}

func (p *KafkaPublisher) Publish(ctx context.Context, event model.OrderEvent) error {
	value, err := json.Marshal(Payload{
		OrderID:    event.OrderID,
		Status:     string(event.Status),
		Progress:   event.Progress,
		OccurredAt: event.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
		Value: value,
		Time:  event.OccurredAt,
	}); err != nil {
		return fmt.Errorf("write to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.OrderEvent) error { return nil }
func (NopPublisher) Close() error                                    { return nil }
