package eventbus

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
)

func testTrack() domain.Track {
	return domain.Track{ID: 7, Name: "Test Track", Duration: 3 * time.Minute}
}

func newTestBus(t *testing.T) *SyncEventBus {
	t.Helper()
	bus := NewSyncEventBus(logger.NewTestLogger())
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestPublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	var received []domain.Event
	subID := bus.Subscribe(domain.EventTrackLoaded, func(event domain.Event) {
		received = append(received, event)
	})
	assert.True(t, strings.HasPrefix(string(subID), "sub-"))

	bus.Publish(domain.NewQueueFinishedEvent(domain.TrackPosition(0)))
	bus.Publish(domain.NewTrackLoadedEvent(testTrack(), domain.TrackPosition(0), time.Minute))

	require.Len(t, received, 1, "other types are not delivered")
	loaded, ok := received[0].(domain.TrackLoadedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(7), loaded.Track.ID)
	assert.Equal(t, time.Minute, loaded.Duration)
}

func TestSubscriptionIDsAreUnique(t *testing.T) {
	bus := newTestBus(t)

	handler := func(domain.Event) {}
	seen := make(map[domain.SubscriptionID]bool)
	for range 50 {
		id := bus.Subscribe(domain.EventQueueFinished, handler)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	all := bus.SubscribeAll(handler)
	assert.True(t, strings.HasPrefix(string(all), "sub-all-"))
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	bus := newTestBus(t)

	var order []string
	bus.Subscribe(domain.EventRepeatChanged, func(domain.Event) { order = append(order, "first") })
	bus.SubscribeAll(func(domain.Event) { order = append(order, "all") })
	bus.Subscribe(domain.EventRepeatChanged, func(domain.Event) { order = append(order, "last") })

	bus.Publish(domain.NewRepeatChangedEvent(domain.RepeatList))

	assert.Equal(t, []string{"first", "all", "last"}, order)
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus(t)

	var calls atomic.Int32
	subID := bus.Subscribe(domain.EventPlaybackStarted, func(domain.Event) {
		calls.Add(1)
	})
	all := bus.SubscribeAll(func(domain.Event) {
		calls.Add(10)
	})

	bus.Publish(domain.NewPlaybackStartedEvent(testTrack()))
	assert.Equal(t, int32(11), calls.Load())

	bus.Unsubscribe(subID)
	bus.Publish(domain.NewPlaybackStartedEvent(testTrack()))
	assert.Equal(t, int32(21), calls.Load())

	bus.Unsubscribe(all)
	bus.Publish(domain.NewPlaybackStartedEvent(testTrack()))
	assert.Equal(t, int32(21), calls.Load())

	// Unknown ids are a no-op
	bus.Unsubscribe("invalid-id")
	bus.Unsubscribe("")
}

func TestSubscribeAll(t *testing.T) {
	bus := newTestBus(t)

	var types []domain.EventType
	bus.SubscribeAll(func(event domain.Event) {
		types = append(types, event.Type())
	})

	bus.Publish(domain.NewPlaybackStartedEvent(testTrack()))
	bus.Publish(domain.NewPlaybackPausedEvent(testTrack(), 10*time.Second))
	bus.Publish(domain.NewQueueAppendedEvent(1, 4))

	assert.Equal(t, []domain.EventType{
		domain.EventPlaybackStarted,
		domain.EventPlaybackPaused,
		domain.EventQueueAppended,
	}, types)
}

func TestListenerPanic(t *testing.T) {
	var logs bytes.Buffer
	bus := NewSyncEventBus(slog.New(slog.NewTextHandler(&logs, nil)))
	defer bus.Close()

	var calls atomic.Int32
	bus.Subscribe(domain.EventQueueFinished, func(domain.Event) {
		panic("test panic")
	})
	bus.Subscribe(domain.EventQueueFinished, func(domain.Event) {
		calls.Add(1)
	})

	assert.NotPanics(t, func() {
		bus.Publish(domain.NewQueueFinishedEvent(domain.TrackPosition(0)))
	})
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, logs.String(), "notification listener panicked")
	assert.Contains(t, logs.String(), "test panic")
}

func TestClose(t *testing.T) {
	bus := NewSyncEventBus(nil)

	var calls atomic.Int32
	handler := func(domain.Event) { calls.Add(1) }
	bus.Subscribe(domain.EventQueueReplaced, handler)
	bus.SubscribeAll(handler)

	require.NoError(t, bus.Close())
	bus.Publish(domain.NewQueueReplacedEvent(2))
	assert.Equal(t, int32(0), calls.Load())

	assert.NoError(t, bus.Close(), "closing twice is harmless")
	assert.Panics(t, func() { bus.Subscribe(domain.EventQueueReplaced, handler) })
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := newTestBus(t)

	var ticks, ended atomic.Int32
	bus.Subscribe(domain.EventPositionTick, func(domain.Event) { ticks.Add(1) })

	const publishers = 10
	const eventsPerPublisher = 100

	var wg sync.WaitGroup
	for range publishers {
		wg.Go(func() {
			for j := range eventsPerPublisher {
				bus.Publish(domain.NewPositionTickEvent(time.Duration(j) * time.Second))
			}
		})
	}
	for range 5 {
		wg.Go(func() {
			for range 10 {
				bus.Subscribe(domain.EventTrackEnded, func(domain.Event) { ended.Add(1) })
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(publishers*eventsPerPublisher), ticks.Load())

	bus.Publish(domain.NewTrackEndedEvent())
	assert.Equal(t, int32(50), ended.Load())
}

func TestNilEventAndHandler(t *testing.T) {
	bus := newTestBus(t)

	var calls atomic.Int32
	bus.SubscribeAll(func(domain.Event) { calls.Add(1) })

	bus.Publish(nil)
	assert.Equal(t, int32(0), calls.Load())

	assert.Panics(t, func() { bus.Subscribe(domain.EventTrackLoaded, nil) })
	assert.Panics(t, func() { bus.SubscribeAll(nil) })
	assert.Panics(t, func() { bus.Subscribe("", func(domain.Event) {}) })
}
