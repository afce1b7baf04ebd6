package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/ports"
)

// DefaultClientBuffer is the per-subscriber queue length.
const DefaultClientBuffer = 16

// Event is a single server-sent event.
type Event struct {
	ID   string
	Name string
	Data []byte
}

// Broker fans events out to live SSE subscribers. Slow subscribers miss
// events instead of blocking the broadcaster.
type Broker struct {
	logger *slog.Logger
	buffer int

	mu      sync.RWMutex
	clients map[string]chan Event
	closed  bool
}

var _ ports.Notifier = (*Broker)(nil)

// NewBroker creates an SSE broker.
func NewBroker(buffer int, logger *slog.Logger) *Broker {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broker{
		logger:  logger,
		buffer:  buffer,
		clients: make(map[string]chan Event),
	}
}

// Subscribe registers a new client. The returned cancel func must be called
// when the client goes away; it closes the events channel.
func (b *Broker) Subscribe() (id string, events <-chan Event, cancel func()) {
	id = uuid.NewString()
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return id, ch, func() {}
	}
	b.clients[id] = ch
	total := len(b.clients)
	b.mu.Unlock()

	b.logger.Debug("sse client subscribed", "client_id", id, "clients", total)

	var once sync.Once
	cancel = func() {
		once.Do(func() { b.remove(id) })
	}
	return id, ch, cancel
}

// Broadcast sends item to every connected client.
func (b *Broker) Broadcast(_ context.Context, event string, item domain.ContentItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	ev := Event{ID: uuid.NewString(), Name: event, Data: data}

	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for id, ch := range b.clients {
		select {
		case ch <- ev:
		default:
			dropped++
			b.logger.Debug("sse client too slow, event dropped", "client_id", id, "event", event)
		}
	}
	if dropped > 0 {
		b.logger.Warn("sse events dropped", "event", event, "dropped", dropped, "clients", len(b.clients))
	}

	return nil
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects every client. Later subscriptions get a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id, ch := range b.clients {
		close(ch)
		delete(b.clients, id)
	}
}

func (b *Broker) remove(id string) {
	b.mu.Lock()
	ch, ok := b.clients[id]
	if ok {
		delete(b.clients, id)
		close(ch)
	}
	total := len(b.clients)
	b.mu.Unlock()

	if ok {
		b.logger.Debug("sse client unsubscribed", "client_id", id, "clients", total)
	}
}
