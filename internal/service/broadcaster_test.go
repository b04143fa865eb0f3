package service

import (
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

func available(gen uint64) domain.PlayerState {
	return domain.Available{Snapshot: domain.PlaybackSnapshot{Generation: gen, Enabled: true}}
}

func generationOf(t *testing.T, s domain.PlayerState) uint64 {
	t.Helper()
	a, ok := s.(domain.Available)
	require.True(t, ok, "expected Available, got %T", s)
	return a.Snapshot.Generation
}

func TestStateBroadcaster_ReplaysCurrentToNewSubscriber(t *testing.T) {
	b := NewStateBroadcaster(domain.Unavailable{})
	assert.Equal(t, domain.StatusUnavailable, b.Current().Status())

	b.Publish(domain.Loading{})
	b.Publish(available(1))

	sub := b.Subscribe()
	defer sub.Close()

	assert.Equal(t, uint64(1), generationOf(t, <-sub.Updates))
	assert.Equal(t, 1, b.SubscriberCount())
}

func TestStateBroadcaster_SlowSubscriberSeesLatest(t *testing.T) {
	b := NewStateBroadcaster(domain.Unavailable{})
	sub := b.Subscribe()
	defer sub.Close()

	for gen := uint64(1); gen <= 10; gen++ {
		b.Publish(available(gen))
	}

	assert.Equal(t, uint64(10), generationOf(t, <-sub.Updates))
	assert.Empty(t, sub.Updates)
}

func TestStateBroadcaster_AllSubscribersConverge(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		b := NewStateBroadcaster(domain.Unavailable{})

		const observers = 3
		subs := make([]*StateSubscription, observers)
		for i := range subs {
			subs[i] = b.Subscribe()
		}

		var mu sync.Mutex
		last := make([]uint64, observers)
		var wg sync.WaitGroup
		for i, sub := range subs {
			wg.Go(func() {
				for s := range sub.Updates {
					if a, ok := s.(domain.Available); ok {
						mu.Lock()
						last[i] = a.Snapshot.Generation
						mu.Unlock()
					}
				}
			})
		}

		for gen := uint64(1); gen <= 100; gen++ {
			b.Publish(available(gen))
		}
		synctest.Wait()

		mu.Lock()
		assert.Equal(t, []uint64{100, 100, 100}, last)
		mu.Unlock()

		b.Close()
		wg.Wait()
	})
}

func TestStateSubscription_Close(t *testing.T) {
	b := NewStateBroadcaster(domain.Unavailable{})
	sub := b.Subscribe()

	sub.Close()
	sub.Close()

	<-sub.Done
	assert.Equal(t, 0, b.SubscriberCount())

	// Publishing to a detached subscription is not observed
	b.Publish(available(1))
	s, ok := <-sub.Updates
	require.True(t, ok, "the value buffered before close is still readable")
	assert.Equal(t, domain.StatusUnavailable, s.Status())
	_, ok = <-sub.Updates
	assert.False(t, ok)
}

func TestStateBroadcaster_Close(t *testing.T) {
	b := NewStateBroadcaster(domain.Unavailable{})
	sub := b.Subscribe()

	b.Publish(available(2))
	b.Close()
	b.Close()

	<-sub.Done
	assert.Equal(t, 0, b.SubscriberCount())

	// Publish after close is ignored
	b.Publish(available(3))
	assert.Equal(t, uint64(2), generationOf(t, b.Current()))

	late := b.Subscribe()
	<-late.Done
	assert.Equal(t, uint64(2), generationOf(t, <-late.Updates))
	late.Close()
}
