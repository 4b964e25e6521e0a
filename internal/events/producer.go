package events

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/ambefarm/beantracker/pkg/models"
)

const (
	SaleRecordedTopic = "sale.recorded"
	SaleDeletedTopic  = "sale.deleted"
)

// SaleRecordedEvent is published after a sale is persisted in the store.
type SaleRecordedEvent struct {
	OrderID    string    `json:"order_id"`
	Product    string    `json:"product"`
	Area       string    `json:"area"`
	Quantity   int       `json:"quantity"`
	TotalPrice float64   `json:"total_price"`
	CreatedAt  int64     `json:"created_at"`
	EventTime  time.Time `json:"event_time"`
}

// SaleDeletedEvent is published after a sale is removed from the store.
type SaleDeletedEvent struct {
	OrderID   string    `json:"order_id"`
	EventTime time.Time `json:"event_time"`
}

// Producer publishes sale lifecycle events to Kafka. Publishing is
// best-effort: callers log failures and carry on.
type Producer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewProducer(brokers string, logger *logrus.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer([]string{brokers}, config)
	if err != nil {
		return nil, err
	}

	return &Producer{
		producer: producer,
		logger:   logger,
	}, nil
}

func (p *Producer) PublishSaleRecorded(order *models.SaleOrder) error {
	event := SaleRecordedEvent{
		OrderID:    order.ID,
		Product:    string(order.Product),
		Area:       string(order.Area),
		Quantity:   order.Quantity,
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt,
		EventTime:  time.Now(),
	}
	return p.publish(SaleRecordedTopic, event.OrderID, event)
}

func (p *Producer) PublishSaleDeleted(orderID string) error {
	event := SaleDeletedEvent{
		OrderID:   orderID,
		EventTime: time.Now(),
	}
	return p.publish(SaleDeletedTopic, orderID, event)
}

func (p *Producer) publish(topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithField("topic", topic).Error("Failed to send event to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     topic,
		"partition": partition,
		"offset":    offset,
		"key":       key,
	}).Info("Event published to Kafka")

	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
