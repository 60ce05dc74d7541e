package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is the booking lifecycle message published to the booking
// and notifications topics. EventID is unique per publish so consumers can
// deduplicate redeliveries.
type BookingEvent struct {
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	PNR            string    `json:"pnr"`
	TripID         int64     `json:"trip_id"`
	TravelDate     string    `json:"travel_date"`
	Seats          []string  `json:"seats"`
	FromStopSeq    int       `json:"from_stop_seq"`
	ToStopSeq      int       `json:"to_stop_seq"`
	PassengerPhone string    `json:"passenger_phone"`
	FareAmount     int       `json:"fare_amount"`
	Status         string    `json:"status"`
	BookedAt       time.Time `json:"booked_at"`
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
