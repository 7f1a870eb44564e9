package sink

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry manages registered sinks.
type Registry struct {
	sinks map[string]Sink
	mu    sync.RWMutex
}

// NewRegistry creates a new sink registry.
func NewRegistry() *Registry {
	return &Registry{
		sinks: make(map[string]Sink),
	}
}

// Register adds a sink, replacing any sink with the same name.
func (r *Registry) Register(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[s.Name()] = s
}

// All returns all registered sinks.
func (r *Registry) All() []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Sink, 0, len(r.sinks))
	for _, s := range r.sinks {
		result = append(result, s)
	}
	return result
}

// Names returns the sorted names of all registered sinks.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sinks))
	for name := range r.sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered sinks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}

// DeliveryError records which sink failed during Dispatch.
type DeliveryError struct {
	Sink string
	Err  error
}

func (e *DeliveryError) Error() string {
	return e.Sink + ": " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Dispatch sends ev to every registered sink in parallel.
// A failing sink never prevents delivery to the others; per-sink errors are
// returned as *DeliveryError.
func (r *Registry) Dispatch(ctx context.Context, ev Event) (delivered []string, errs []error) {
	sinks := r.All()
	if len(sinks) == 0 {
		return nil, nil
	}

	mu := &sync.Mutex{}
	g, ctx := errgroup.WithContext(ctx)

	for _, s := range sinks {
		s := s
		g.Go(func() error {
			err := s.Send(ctx, ev)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, &DeliveryError{Sink: s.Name(), Err: err})
				return nil
			}
			delivered = append(delivered, s.Name())
			return nil
		})
	}

	_ = g.Wait()
	sort.Strings(delivered)
	return delivered, errs
}
