// Package kafka publishes query records to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	skafka "github.com/segmentio/kafka-go"
	"github.com/ultimatefreight/freightdesk/pkg/sink"
)

const sinkName = "kafka"

// Writer is the subset of kafka.Writer the producer needs, so tests can fake it.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Producer is a sink writing each event as one JSON message keyed by record ID.
type Producer struct {
	writer Writer
}

// NewProducer creates a producer writing to topic on the given brokers.
func NewProducer(brokers []string, topic string) *Producer {
	w := &skafka.Writer{
		Addr:                   skafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &skafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: w}
}

// NewProducerWithWriter allows injecting a test writer.
func NewProducerWithWriter(w Writer) *Producer {
	return &Producer{writer: w}
}

// Name returns the sink name.
func (p *Producer) Name() string {
	return sinkName
}

// Send publishes ev.
func (p *Producer) Send(ctx context.Context, ev sink.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := skafka.Message{
		Key:   []byte(ev.ID),
		Value: b,
		Headers: []skafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return sink.Transient(sinkName, sink.CodeWrite, "kafka write failed", err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

var _ sink.Sink = (*Producer)(nil)
