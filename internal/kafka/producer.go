package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-booking/internal/models"
)

const (
	TopicBookingCreated   = "booking.created"
	TopicBookingPaid      = "booking.paid"
	TopicBookingCancelled = "booking.cancelled"
	TopicBookingCompleted = "booking.completed"
)

// Topics lists every lifecycle topic the producer writes to.
var Topics = []string{
	TopicBookingCreated,
	TopicBookingPaid,
	TopicBookingCancelled,
	TopicBookingCompleted,
}

type Producer struct {
	writers map[string]*kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writers := make(map[string]*kafka.Writer, len(Topics))
	for _, topic := range Topics {
		writers[topic] = kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   topic,
		})
	}
	return &Producer{writers: writers}
}

func (p *Producer) publish(topic string, booking models.Booking) error {
	msgBytes, err := json.Marshal(booking)
	if err != nil {
		return err
	}

	fmt.Printf("Publishing to Kafka [%s]: %s\n", topic, string(msgBytes))

	return p.writers[topic].WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(booking.BookingID),
			Value: msgBytes,
		},
	)
}

// PublishBookingCreated streams the booking creation event to Kafka
func (p *Producer) PublishBookingCreated(booking models.Booking) error {
	return p.publish(TopicBookingCreated, booking)
}

// PublishBookingPaid streams the payment confirmation event to Kafka
func (p *Producer) PublishBookingPaid(booking models.Booking) error {
	return p.publish(TopicBookingPaid, booking)
}

// PublishBookingCancelled streams the cancellation event to Kafka
func (p *Producer) PublishBookingCancelled(booking models.Booking) error {
	return p.publish(TopicBookingCancelled, booking)
}

// PublishBookingCompleted streams the completion event to Kafka
func (p *Producer) PublishBookingCompleted(booking models.Booking) error {
	return p.publish(TopicBookingCompleted, booking)
}

// Close shuts down every topic writer.
func (p *Producer) Close() error {
	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NoopProducer satisfies the publisher contract when Kafka is disabled.
type NoopProducer struct{}

func (NoopProducer) PublishBookingCreated(models.Booking) error   { return nil }
func (NoopProducer) PublishBookingPaid(models.Booking) error      { return nil }
func (NoopProducer) PublishBookingCancelled(models.Booking) error { return nil }
func (NoopProducer) PublishBookingCompleted(models.Booking) error { return nil }
