// Package events carries change notifications for stored records to
// in-process subscribers and optional external sinks.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
)

type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
	// OperationActivate is published once when a storage backend becomes active
	OperationActivate Operation = "activate"
)

// Change describes one write against a collection
type Change struct {
	Collection string    `json:"collection"`
	Operation  Operation `json:"operation"`
	ID         string    `json:"id,omitempty"`
	Backend    string    `json:"backend"`
	At         time.Time `json:"at"`
}

// Sink receives every published change after in-process subscribers
type Sink interface {
	Publish(ctx context.Context, change Change) error
}

// Bus fans changes out to subscribers. The zero value is not usable; use NewBus.
type Bus struct {
	logger ectologger.Logger

	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(Change)
	sinks       []Sink
}

func NewBus(logger ectologger.Logger, sinks ...Sink) *Bus {
	return &Bus{
		logger:      logger,
		subscribers: make(map[int]func(Change)),
		sinks:       sinks,
	}
}

// Subscribe registers fn and returns a function removing it
func (b *Bus) Subscribe(fn func(Change)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
	}
}

// AddSink attaches an external sink
func (b *Bus) AddSink(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Publish delivers change to every subscriber on the calling goroutine, then
// hands it to the sinks. Sink failures are logged and never returned.
func (b *Bus) Publish(ctx context.Context, change Change) {
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}

	b.mu.RLock()
	subscribers := make([]func(Change), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subscribers = append(subscribers, fn)
	}
	sinks := b.sinks
	b.mu.RUnlock()

	for _, fn := range subscribers {
		fn(change)
	}

	for _, s := range sinks {
		if err := s.Publish(ctx, change); err != nil {
			b.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"collection": change.Collection,
				"operation":  change.Operation,
			}).Warn("Failed to export change event")
		}
	}
}
