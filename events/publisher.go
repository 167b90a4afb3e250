package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/velora-store/velora-backend-go/models"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderPaid          = "order.paid"
	TypeOrderStatusChanged = "order.status_changed"
)

// Event is the lifecycle notification published for downstream
// consumers (confirmation mail, dashboards).
type Event struct {
	Type          string                   `json:"type"`
	OrderID       string                   `json:"orderId"`
	PaymentStatus models.PaymentStatus     `json:"paymentStatus"`
	Status        models.FulfillmentStatus `json:"status"`
	Total         float64                  `json:"total"`
	Timestamp     time.Time                `json:"timestamp"`
}

// KafkaPublisher writes order events to a single topic. With no
// brokers configured it stays disabled and every publish is a no-op,
// so the store runs fine without a broker.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if len(brokers) == 0 {
		return &KafkaPublisher{}
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaPublisher) Enabled() bool {
	return p.writer != nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if !p.Enabled() {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
		Time:  event.Timestamp,
	})
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
