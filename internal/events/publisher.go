package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
	"github.com/quickcart-shop/quickcart-api/internal/models"
)

// EventType labels an order lifecycle event.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
)

// OrderEvent is the envelope published to the orders topic.
type OrderEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// OrderEventPublisher publishes order lifecycle events. Publishing is
// best-effort; callers log failures and continue.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error
	Close() error
}

var _ OrderEventPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher publishes order events to Kafka, keyed by order id so
// events for one order stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *logging.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{
		writer: writer,
		logger: logging.NewLogger("event-publisher"),
	}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.publish(ctx, newEvent(EventTypeOrderCreated, order, data))
}

func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	payload := struct {
		Order          *models.Order      `json:"order"`
		PreviousStatus models.OrderStatus `json:"previous_status"`
		NewStatus      models.OrderStatus `json:"new_status"`
	}{Order: order, PreviousStatus: previous, NewStatus: order.Status}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, newEvent(EventTypeOrderStatusChanged, order, data))
}

func (p *KafkaPublisher) publish(ctx context.Context, event *OrderEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithFields(logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"error":      err.Error(),
		}).Error("event publish failed")
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func newEvent(eventType EventType, order *models.Order, data []byte) *OrderEvent {
	return &OrderEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		OrderID:   order.ID.Hex(),
		UserID:    order.UserID.Hex(),
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// MockEventPublisher records events for tests. Publishes arrive from
// concurrent webhook deliveries, so the recorder is mutex-guarded.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*OrderEvent
}

var _ OrderEventPublisher = (*MockEventPublisher)(nil)

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	m.record(newEvent(EventTypeOrderCreated, order, nil))
	return nil
}

func (m *MockEventPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	m.record(newEvent(EventTypeOrderStatusChanged, order, nil))
	return nil
}

func (m *MockEventPublisher) record(event *OrderEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a snapshot of the recorded events.
func (m *MockEventPublisher) Events() []*OrderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*OrderEvent(nil), m.events...)
}

func (m *MockEventPublisher) Close() error { return nil }
