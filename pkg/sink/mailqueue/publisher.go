// Package mailqueue turns lead events into notification emails and publishes
// them to a durable RabbitMQ queue consumed by the mailer.
package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ultimatefreight/freightdesk/pkg/sink"
)

const sinkName = "mailqueue"

// Channel is the subset of *amqp.Channel used by the publisher.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Email is the message consumed by the mailer. Params feed the mail template.
type Email struct {
	To       string            `json:"to"`
	ReplyTo  string            `json:"replyTo,omitempty"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Params   map[string]string `json:"params"`
}

// Publisher is a sink publishing notification emails for lead events.
type Publisher struct {
	conn  *amqp.Connection
	ch    Channel
	queue string
	to    string
}

// Dial connects to RabbitMQ, opens a channel and declares the queue.
func Dial(url, queue, to string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening rabbitmq channel: %w", err)
	}
	p, err := NewWithChannel(ch, queue, to)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewWithChannel builds a publisher over an existing channel and declares the queue.
func NewWithChannel(ch Channel, queue, to string) (*Publisher, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declaring queue %s: %w", queue, err)
	}
	return &Publisher{ch: ch, queue: queue, to: to}, nil
}

// Name returns the sink name.
func (p *Publisher) Name() string {
	return sinkName
}

// Send publishes a notification email for quote and contact events.
// Other event types are ignored.
func (p *Publisher) Send(ctx context.Context, ev sink.Event) error {
	if !ev.IsLead() {
		return nil
	}

	email, err := BuildEmail(ev, p.to)
	if err != nil {
		return sink.NewSinkError(sinkName, sink.CodePayload, "cannot build email").WithCause(err)
	}
	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		return sink.Transient(sinkName, sink.CodePublish, "rabbitmq publish failed", err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// BuildEmail maps a lead event to template parameters.
func BuildEmail(ev sink.Event, to string) (Email, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return Email{}, err
	}
	str := func(key string) string {
		if v, ok := data[key]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
		return ""
	}

	switch ev.Type {
	case sink.TypeQuote:
		return Email{
			To:       to,
			ReplyTo:  str("email"),
			Subject:  "New quote request from " + str("fullName"),
			Template: "quote_request",
			Params: map[string]string{
				"from_name":     str("fullName"),
				"from_email":    str("email"),
				"phone":         str("phone"),
				"company":       str("company"),
				"shipment_type": str("shipmentType"),
				"origin":        str("origin"),
				"destination":   str("destination"),
				"details":       str("additionalInfo"),
			},
		}, nil
	case sink.TypeContact:
		return Email{
			To:       to,
			ReplyTo:  str("email"),
			Subject:  str("subject"),
			Template: "contact_message",
			Params: map[string]string{
				"from_name":  str("name"),
				"from_email": str("email"),
				"subject":    str("subject"),
				"message":    str("message"),
			},
		}, nil
	default:
		return Email{}, fmt.Errorf("unsupported event type %q", ev.Type)
	}
}

var _ sink.Sink = (*Publisher)(nil)
