package ports

import (
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// EventBus carries notifications from the playback controller and the
// add-to-playlist coordinator to listeners such as the CLI and preference
// persistence. Publishers never learn who listens.
//
// Implementations must be safe for concurrent use. Listeners run on the
// publishing goroutine and must return quickly.
//
//	id := bus.Subscribe(domain.EventTrackLoaded, func(event domain.Event) {
//	    e := event.(domain.TrackLoadedEvent)
//	    fmt.Println("now playing", e.Track.Name)
//	})
//	defer bus.Unsubscribe(id)
type EventBus interface {
	// Publish delivers event to every listener of its type and to every
	// SubscribeAll listener, in subscription order.
	Publish(event domain.Event)

	// Subscribe registers handler for notifications of eventType.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// SubscribeAll registers handler for every notification.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a listener. Unknown ids are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// Close drops all listeners. Publishing afterwards does nothing.
	Close() error
}
