// Package plugin implements the hook surface of the post lifecycle:
// fire-and-forget notifications for lifecycle events and filter chains that
// let observers rewrite computed property values without touching stored
// state.
package plugin

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Observer handles one lifecycle notification. A returned error is logged
// and never aborts the operation that raised the event.
type Observer func(subject any, payload any) error

// FilterFunc transforms a computed property value. Filters for the same
// event run in registration order, each receiving the previous result.
type FilterFunc func(value any) any

// Dispatcher routes notifications and filter calls by event name. Safe for
// concurrent use.
type Dispatcher struct {
	mu        sync.RWMutex
	observers map[string][]Observer
	filters   map[string][]FilterFunc
	logger    *zap.Logger
}

// NewDispatcher creates a Dispatcher. A nil logger silences observer
// failure reporting.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		observers: make(map[string][]Observer),
		filters:   make(map[string][]FilterFunc),
		logger:    logger,
	}
}

// Register adds an observer for the named event.
func (d *Dispatcher) Register(event string, fn Observer) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers[event] = append(d.observers[event], fn)
}

// RegisterFilter appends a transformer to the filter chain for the named
// event.
func (d *Dispatcher) RegisterFilter(event string, fn FilterFunc) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters[event] = append(d.filters[event], fn)
}

// Notify runs every observer registered for event. Observer errors and
// panics are logged and isolated from both the caller and the remaining
// observers.
func (d *Dispatcher) Notify(event string, subject, payload any) {
	d.mu.RLock()
	observers := d.observers[event]
	d.mu.RUnlock()

	for _, fn := range observers {
		if err := d.runObserver(fn, subject, payload); err != nil {
			d.logger.Warn("lifecycle observer failed",
				zap.String("event", event),
				zap.Error(err))
		}
	}
}

// Filter threads value through the transformer chain registered for event
// and returns the final result. With no filters registered the value comes
// back unchanged.
func (d *Dispatcher) Filter(event string, value any) any {
	d.mu.RLock()
	filters := d.filters[event]
	d.mu.RUnlock()

	for _, fn := range filters {
		value = fn(value)
	}
	return value
}

func (d *Dispatcher) runObserver(fn Observer, subject, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return fn(subject, payload)
}
