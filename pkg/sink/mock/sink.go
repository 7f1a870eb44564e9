// Package mock provides a recording sink for tests.
package mock

import (
	"context"
	"sync"

	"github.com/ultimatefreight/freightdesk/pkg/sink"
)

// Sink records every event it receives. Set Err to make Send fail.
type Sink struct {
	name string

	mu     sync.Mutex
	events []sink.Event
	Err    error
}

// New creates a new mock sink.
func New(name string) *Sink {
	return &Sink{name: name}
}

// NewFailing creates a mock sink whose Send always returns err.
func NewFailing(name string, err error) *Sink {
	return &Sink{name: name, Err: err}
}

// Name returns the sink name.
func (s *Sink) Name() string {
	return s.name
}

// Send records ev, or returns the configured error.
func (s *Sink) Send(ctx context.Context, ev sink.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the received events.
func (s *Sink) Events() []sink.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sink.Event, len(s.events))
	copy(out, s.events)
	return out
}

var _ sink.Sink = (*Sink)(nil)
