// Package sink provides best-effort delivery of query records to remote
// destinations (collectors, message brokers, mail queues).
package sink

import (
	"context"
	"encoding/json"
	"time"
)

// Sink defines the interface that every remote destination must implement.
type Sink interface {
	// Name returns the sink identifier (e.g., "collector", "kafka", "mailqueue").
	Name() string

	// Send delivers a single event. Implementations must honor ctx cancellation.
	Send(ctx context.Context, ev Event) error
}

// Event is a query record as shipped to remote destinations.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Event types.
const (
	TypeContact          = "contact"
	TypeQuote            = "quote"
	TypePriceCalculation = "price_calculation"
)

// IsLead reports whether the event is a quote request or contact message.
func (e Event) IsLead() bool {
	return e.Type == TypeQuote || e.Type == TypeContact
}
