package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/storefront-go/storefront/internal/domain/order"
)

// orderPlacedEvent is the wire payload published for each committed order.
type orderPlacedEvent struct {
	OrderID    string           `json:"orderId"`
	CreatedBy  string           `json:"createdBy"`
	Status     string           `json:"status"`
	GrandTotal decimal.Decimal  `json:"grandTotal"`
	Items      []order.LineItem `json:"items"`
	Contact    Contact          `json:"contact"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// KafkaNotifier publishes order-placed events to a Kafka topic, keyed by
// order ID so all events for one order land on the same partition.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier creates a KafkaNotifier producing to topic on the given
// brokers.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (n *KafkaNotifier) OrderPlaced(ctx context.Context, o *order.Order, contact Contact) error {
	payload, err := json.Marshal(orderPlacedEvent{
		OrderID:    o.ID,
		CreatedBy:  o.CreatedBy,
		Status:     string(o.Status),
		GrandTotal: o.GrandTotal,
		Items:      o.Items,
		Contact:    contact,
		CreatedAt:  o.CreatedAt,
	})
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.ID),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "write message")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
