// Package eventbus delivers controller and playlist notifications to in-process listeners.
package eventbus

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// SyncEventBus calls listeners on the publishing goroutine, in subscription order.
// For the playback controller that is the actor goroutine, so listeners must
// not call back into the controller and wait for the answer.
type SyncEventBus struct {
	logger *slog.Logger

	mu        sync.RWMutex
	listeners []listener
	closed    bool
}

// listener is one subscription. An empty eventType matches every notification.
type listener struct {
	id        domain.SubscriptionID
	eventType domain.EventType
	handler   domain.EventHandler
}

func (l listener) matches(t domain.EventType) bool {
	return l.eventType == "" || l.eventType == t
}

// NewSyncEventBus creates an empty bus. Listener panics are reported to logger.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SyncEventBus{logger: logger}
}

// Publish delivers event to every matching listener. Nil events and
// events published after Close are dropped.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	t := event.Type()
	bus.mu.RLock()
	var targets []listener
	if !bus.closed {
		for _, l := range bus.listeners {
			if l.matches(t) {
				targets = append(targets, l)
			}
		}
	}
	bus.mu.RUnlock()

	for _, l := range targets {
		bus.deliver(l, event)
	}
}

func (bus *SyncEventBus) deliver(l listener, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("notification listener panicked",
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(l.id)),
				slog.Any("panic", r))
		}
	}()
	l.handler(event)
}

// Subscribe registers handler for notifications of eventType.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	if eventType == "" {
		panic("eventbus: empty event type, use SubscribeAll")
	}
	return bus.add("sub-", eventType, handler)
}

// SubscribeAll registers handler for every notification.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("sub-all-", "", handler)
}

func (bus *SyncEventBus) add(prefix string, eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("eventbus: nil handler")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.closed {
		panic("eventbus: subscribe after close")
	}

	id := domain.SubscriptionID(prefix + uuid.NewString())
	bus.listeners = append(bus.listeners, listener{id: id, eventType: eventType, handler: handler})
	return id
}

// Unsubscribe removes a listener. Unknown ids are ignored.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.listeners = slices.DeleteFunc(bus.listeners, func(l listener) bool { return l.id == id })
}

// Close drops every listener. Later publishes are ignored and later
// subscriptions panic. Closing twice is a no-op.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.closed = true
	bus.listeners = nil
	return nil
}

var _ ports.EventBus = (*SyncEventBus)(nil)
