package eventbus

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// On subscribes handler to the notification type E. E must be one of the
// concrete event structs in domain, not an interface.
func On[E domain.Event](bus ports.EventBus, handler func(E)) domain.SubscriptionID {
	var zero E
	return bus.Subscribe(zero.Type(), func(event domain.Event) {
		if e, ok := event.(E); ok {
			handler(e)
		}
	})
}

// Subscriptions groups listeners registered for one consumer so they can be
// released together.
type Subscriptions struct {
	bus ports.EventBus

	mu  sync.Mutex
	ids []domain.SubscriptionID
}

func NewSubscriptions(bus ports.EventBus) *Subscriptions {
	return &Subscriptions{bus: bus}
}

// Add records id and returns the receiver for chaining.
func (s *Subscriptions) Add(id domain.SubscriptionID) *Subscriptions {
	s.mu.Lock()
	s.ids = append(s.ids, id)
	s.mu.Unlock()
	return s
}

// Close unsubscribes every recorded listener.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	ids := s.ids
	s.ids = nil
	s.mu.Unlock()

	for _, id := range ids {
		s.bus.Unsubscribe(id)
	}
}

// LogNotifications writes every notification to logger at debug level.
func LogNotifications(bus ports.EventBus, logger *slog.Logger) domain.SubscriptionID {
	return bus.SubscribeAll(func(event domain.Event) {
		logger.Debug("notification",
			slog.String("event_type", string(event.Type())),
			slog.Time("at", event.Timestamp()))
	})
}
