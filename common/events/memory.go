package events

import (
	"context"
	"sync"
	"time"
)

// MemoryBus is an in-process Publisher with channel subscribers. It backs
// cmd/runner and tests; buffered delivery, full subscribers drop.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[string][]chan Event
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]chan Event)}
}

// Publish delivers the event to every subscriber of its workflow.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	if event.TS.IsZero() {
		event.TS = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[event.WorkflowID] {
		select {
		case ch <- event:
		default:
			// Slow subscriber; the live view tolerates gaps.
		}
	}
	return nil
}

// Subscribe returns a buffered event channel for one workflow id.
func (b *MemoryBus) Subscribe(workflowID string) <-chan Event {
	ch := make(chan Event, 64)

	b.mu.Lock()
	b.subs[workflowID] = append(b.subs[workflowID], ch)
	b.mu.Unlock()

	return ch
}

// Close closes every subscriber channel.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
		delete(b.subs, id)
	}
}
