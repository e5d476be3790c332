// Package kafka publishes login job events to a Kafka topic.
package kafka

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"account-console/internal/telemetry"
)

// writeTimeout bounds a single write so a slow broker does not hold the emitting goroutine.
const writeTimeout = 5 * time.Second

// messageWriter is the part of *kafka.Writer used by Producer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer implements telemetry.EventEmitter using segmentio/kafka-go.
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer returns a producer writing to topic on brokers, or nil when either is empty.
// Call Close when shutting down.
func NewProducer(brokers []string, topic string) *Producer {
	brokers = cleanBrokers(brokers)
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{writer: writer, topic: topic}
}

// Emit writes the event as JSON keyed by account id, so events of one account keep their order.
func (p *Producer) Emit(ctx context.Context, event *telemetry.Event) error {
	if p == nil || p.writer == nil || event == nil {
		return nil
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, message(event))
}

// Close closes the writer. Safe on a nil producer.
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func message(event *telemetry.Event) kafka.Message {
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.AccountID, 10)),
		Value: event.JSON(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
		Time: event.CreatedAt,
	}
}

// ParseBrokers splits a comma-separated broker list.
func ParseBrokers(s string) []string {
	return cleanBrokers(strings.Split(s, ","))
}

func cleanBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
