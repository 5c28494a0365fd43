package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/invoicer/internal/publisher"
	"github.com/flexprice/invoicer/internal/types"
)

// PublishedEvent is an event captured by InMemoryEventPublisher
type PublishedEvent struct {
	Name    string
	Actor   string
	Payload interface{}
}

// InMemoryEventPublisher records published events for assertions
type InMemoryEventPublisher struct {
	mu     sync.RWMutex
	events []PublishedEvent
}

var _ publisher.EventPublisher = (*InMemoryEventPublisher)(nil)

func NewInMemoryEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, eventName string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, PublishedEvent{
		Name:    eventName,
		Actor:   types.GetUserID(ctx),
		Payload: payload,
	})
	return nil
}

// Events returns the events published under name
func (p *InMemoryEventPublisher) Events(name string) []PublishedEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []PublishedEvent
	for _, e := range p.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops every recorded event
func (p *InMemoryEventPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
