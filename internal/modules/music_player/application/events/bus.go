package events

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 100

var (
	// ErrBusClosed is returned when publishing or subscribing after Close.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrBufferFull is returned when the event buffer is full and the event was dropped.
	ErrBufferFull = errors.New("event buffer is full")
)

// Compile-time checks that Bus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*Bus)(nil)
	_ ports.EventSubscriber = (*Bus)(nil)
)

// Handler is invoked for every published event of the subscribed type.
type Handler func(context.Context, domain.Event)

// Bus provides a channel-based event bus for async event handling.
// Events are delivered to handlers in publish order by a single dispatcher.
type Bus struct {
	events   chan domain.Event
	handlers map[reflect.Type][]Handler

	ctx        context.Context
	cancel     context.CancelFunc
	dispatcher conc.WaitGroup
	closed     bool
	mu         sync.RWMutex
}

// NewBus creates a new Bus with the given buffer size and starts its dispatcher.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &Bus{
		events:   make(chan domain.Event, bufferSize),
		handlers: make(map[reflect.Type][]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
	bus.dispatcher.Go(bus.dispatch)

	return bus
}

// Publish queues an event for delivery.
// Non-blocking: if the buffer is full, the event is dropped with a warning.
func (b *Bus) Publish(event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", event.EventName())
		return ErrBusClosed
	}

	select {
	case b.events <- event:
		slog.Debug("published event", "type", event.EventName())
		return nil
	default:
		slog.Warn("event buffer full, dropping event", "type", event.EventName())
		return ErrBufferFull
	}
}

// Subscribe registers a handler for events of the given concrete type.
func (b *Bus) Subscribe(eventType reflect.Type, handler func(context.Context, domain.Event)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

func (b *Bus) dispatch() {
	for event := range b.events {
		b.mu.RLock()
		handlers := b.handlers[reflect.TypeOf(event)]
		b.mu.RUnlock()

		for _, handler := range handlers {
			b.invoke(handler, event)
		}
	}
}

func (b *Bus) invoke(handler Handler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "type", event.EventName(), "panic", r)
		}
	}()
	handler(b.ctx, event)
}

// Close stops accepting events, drains the buffer and waits for the dispatcher.
// Close is idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()

	b.dispatcher.Wait()
	b.cancel()

	slog.Debug("event bus closed")
}
