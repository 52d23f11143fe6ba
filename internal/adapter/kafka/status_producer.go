package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/tiendamx/shop-api/internal/usecase"
)

// StatusProducer publishes order status-changed events, keyed by order id so
// per-order ordering survives partitioning.
type StatusProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewStatusProducer(p sarama.SyncProducer, topic string) *StatusProducer {
	return &StatusProducer{producer: p, topic: topic}
}

func (sp *StatusProducer) PublishStatusChanged(_ context.Context, msg usecase.OrderStatusChangedMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, _, err = sp.producer.SendMessage(&sarama.ProducerMessage{
		Topic: sp.topic,
		Key:   sarama.StringEncoder(msg.OrderID),
		Value: sarama.ByteEncoder(body),
	})
	return err
}

var _ usecase.StatusEvents = (*StatusProducer)(nil)
