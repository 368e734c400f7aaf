package events

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// EventListener processes events
type EventListener interface {
	HandleEvent(event Event) error
	Priority() int
	ID() string
}

// Bus manages event distribution. Stage events are emitted while the stage
// holds its lock, so listeners must not call back into the stage.
type Bus struct {
	listeners map[EventType][]EventListener
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewBus creates a new event bus. A nil logger uses slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		listeners: make(map[EventType][]EventListener),
		logger:    logger,
	}
}

// Subscribe adds a listener for specific event types
func (b *Bus) Subscribe(eventType EventType, listener EventListener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[eventType] = append(b.listeners[eventType], listener)

	// Sort by priority
	sort.SliceStable(b.listeners[eventType], func(i, j int) bool {
		return b.listeners[eventType][i].Priority() < b.listeners[eventType][j].Priority()
	})

	b.logger.Debug("subscribed listener",
		"listener", listener.ID(), "event", eventType, "priority", listener.Priority())
}

// SubscribeAll adds a listener for each of the given types, or for every
// stage event type when none are given
func (b *Bus) SubscribeAll(listener EventListener, types ...EventType) {
	if len(types) == 0 {
		types = AllTypes
	}
	for _, t := range types {
		b.Subscribe(t, listener)
	}
}

// Unsubscribe removes a listener
func (b *Bus) Unsubscribe(eventType EventType, listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners := b.listeners[eventType]
	for i, l := range listeners {
		if l.ID() != listenerID {
			continue
		}
		kept := make([]EventListener, 0, len(listeners)-1)
		kept = append(kept, listeners[:i]...)
		b.listeners[eventType] = append(kept, listeners[i+1:]...)

		b.logger.Debug("unsubscribed listener", "listener", listenerID, "event", eventType)
		return
	}
}

// Emit sends an event to all registered listeners in priority order. The
// first listener error stops propagation.
func (b *Bus) Emit(event Event) error {
	b.mu.RLock()
	listeners := make([]EventListener, len(b.listeners[event.GetType()]))
	copy(listeners, b.listeners[event.GetType()])
	b.mu.RUnlock()

	for _, listener := range listeners {
		if event.IsCancelled() {
			b.logger.Debug("event cancelled", "event", event.GetType(), "avatar", event.GetAvatar())
			break
		}

		if err := listener.HandleEvent(event); err != nil {
			return fmt.Errorf("listener %s failed: %w", listener.ID(), err)
		}
	}

	return nil
}

// Clear removes all listeners
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[EventType][]EventListener)
}

// ListenerFunc adapts a function to EventListener
type ListenerFunc struct {
	id       string
	priority int
	fn       func(Event) error
}

// NewListenerFunc wraps fn as a listener
func NewListenerFunc(id string, priority int, fn func(Event) error) *ListenerFunc {
	return &ListenerFunc{id: id, priority: priority, fn: fn}
}

func (l *ListenerFunc) ID() string                { return l.id }
func (l *ListenerFunc) Priority() int             { return l.priority }
func (l *ListenerFunc) HandleEvent(e Event) error { return l.fn(e) }
