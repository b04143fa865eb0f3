package service

import (
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// StateSubscription delivers PlayerState values to one observer.
// Updates holds at most one value: an observer that falls behind skips intermediate
// states and always reads the newest one.
type StateSubscription struct {
	Updates <-chan domain.PlayerState
	Done    <-chan struct{}

	// Internal write channels
	updatesCh chan domain.PlayerState
	doneCh    chan struct{}

	owner *StateBroadcaster
	once  sync.Once
}

func newStateSubscription(owner *StateBroadcaster) *StateSubscription {
	s := &StateSubscription{
		updatesCh: make(chan domain.PlayerState, 1),
		doneCh:    make(chan struct{}),
		owner:     owner,
	}
	s.Updates = s.updatesCh
	s.Done = s.doneCh
	return s
}

// Close detaches the subscription. Updates and Done are closed. Safe to call more than once.
func (s *StateSubscription) Close() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	delete(s.owner.subs, s)
	s.close()
}

// close must be called with owner.mu held.
func (s *StateSubscription) close() {
	s.once.Do(func() {
		close(s.doneCh)
		close(s.updatesCh)
	})
}

// offer replaces any unread value with state. Must be called with owner.mu held.
func (s *StateSubscription) offer(state domain.PlayerState) {
	for {
		select {
		case s.updatesCh <- state:
			return
		default:
		}
		// Drop the stale value
		select {
		case <-s.updatesCh:
		default:
		}
	}
}

// StateBroadcaster is a single-writer, multi-reader current-value cell.
// New subscribers immediately receive the current value.
//
// Thread-safety: This implementation is thread-safe.
type StateBroadcaster struct {
	mu      sync.Mutex
	current domain.PlayerState
	subs    map[*StateSubscription]struct{}
	closed  bool
}

// NewStateBroadcaster creates a broadcaster holding initial.
func NewStateBroadcaster(initial domain.PlayerState) *StateBroadcaster {
	return &StateBroadcaster{
		current: initial,
		subs:    make(map[*StateSubscription]struct{}),
	}
}

// Current returns the latest published state.
func (b *StateBroadcaster) Current() domain.PlayerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Publish makes state current and offers it to every subscriber.
// Publishing after Close is a no-op.
func (b *StateBroadcaster) Publish(state domain.PlayerState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.current = state
	for s := range b.subs {
		s.offer(state)
	}
}

// Subscribe registers a new observer. The current state is already waiting in Updates.
// Subscribing to a closed broadcaster returns a subscription that is already done.
func (b *StateBroadcaster) Subscribe() *StateSubscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := newStateSubscription(b)
	s.offer(b.current)
	if b.closed {
		s.close()
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// SubscriberCount returns the number of attached subscriptions.
func (b *StateBroadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close detaches all subscribers. The last published state remains readable through Current.
func (b *StateBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.close()
	}
	clear(b.subs)
}
