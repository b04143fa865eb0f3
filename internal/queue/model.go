// Package queue implements navigation over a playback queue of heterogeneous, possibly nested entries.
//
// A queue is an ordered []domain.QueueEntry. Tracks are leaves; albums and playlists are groups
// whose items are visited depth-first and in order. Zero-length groups are transparent: no
// function in this package ever yields a Position pointing at one.
//
// All functions are pure. They never modify the queue they are given.
package queue

import (
	"fmt"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// InitialPosition returns the first reachable position of q.
// It reports false when q holds no playable track.
func InitialPosition(q []domain.QueueEntry) (domain.Position, bool) {
	return firstFrom(q, 0)
}

// LastPosition returns the last reachable position of q.
func LastPosition(q []domain.QueueEntry) (domain.Position, bool) {
	return lastFrom(q, len(q)-1)
}

// Validate checks pos against the queue invariant.
func Validate(q []domain.QueueEntry, pos domain.Position) error {
	if pos.Entry < 0 || pos.Entry >= len(q) {
		return domain.NewInvalidPositionError(pos, len(q), "entry index out of range", domain.ErrInvalidIndex)
	}

	switch e := q[pos.Entry].(type) {
	case domain.Track:
		if pos.HasSub() {
			return domain.NewInvalidPositionError(pos, len(q), "track entry addressed with a sub index", domain.ErrNotGroup)
		}
	case domain.Group:
		items := e.Tracks()
		if len(items) == 0 {
			return domain.NewInvalidPositionError(pos, len(q), "empty group is not reachable", domain.ErrEmptyGroup)
		}
		if pos.Sub < 0 || pos.Sub >= len(items) {
			return domain.NewInvalidPositionError(pos, len(q), "sub index out of range", domain.ErrInvalidIndex)
		}
	default:
		return domain.NewInvalidPositionError(pos, len(q), fmt.Sprintf("unknown entry type %T", e), nil)
	}
	return nil
}

// CurrentTrack resolves the track pos points at.
func CurrentTrack(q []domain.QueueEntry, pos domain.Position) (domain.Track, error) {
	if err := Validate(q, pos); err != nil {
		return domain.Track{}, err
	}

	switch e := q[pos.Entry].(type) {
	case domain.Track:
		return e, nil
	case domain.Group:
		return e.Tracks()[pos.Sub], nil
	}
	return domain.Track{}, domain.NewInvalidPositionError(pos, len(q), "unresolvable entry", nil)
}

// Advance computes the position after pos in depth-first order.
// Past the end of the queue, repeat decides: RepeatList wraps to the start,
// RepeatTrack returns pos unchanged and RepeatOff reports false.
// pos must be valid for q.
func Advance(q []domain.QueueEntry, pos domain.Position, repeat domain.RepeatState) (domain.Position, bool) {
	if g, ok := q[pos.Entry].(domain.Group); ok && pos.Sub+1 < len(g.Tracks()) {
		return domain.GroupPosition(pos.Entry, pos.Sub+1), true
	}
	if next, ok := firstFrom(q, pos.Entry+1); ok {
		return next, true
	}

	switch OnQueueExhausted(repeat) {
	case WrapToStart:
		return InitialPosition(q)
	case ReplayCurrent:
		return pos, true
	default:
		return pos, false
	}
}

// Retreat computes the position before pos. At the first reachable position it reports false.
// pos must be valid for q.
func Retreat(q []domain.QueueEntry, pos domain.Position) (domain.Position, bool) {
	if pos.HasSub() && pos.Sub > 0 {
		return domain.GroupPosition(pos.Entry, pos.Sub-1), true
	}
	return lastFrom(q, pos.Entry-1)
}

// JumpToEntry returns the first position of entry i.
func JumpToEntry(q []domain.QueueEntry, i int) (domain.Position, error) {
	if i < 0 || i >= len(q) {
		return domain.Position{}, fmt.Errorf("%w: entry %d of %d", domain.ErrInvalidIndex, i, len(q))
	}

	switch e := q[i].(type) {
	case domain.Track:
		return domain.TrackPosition(i), nil
	case domain.Group:
		if len(e.Tracks()) == 0 {
			return domain.Position{}, fmt.Errorf("%w: entry %d", domain.ErrEmptyGroup, i)
		}
		return domain.GroupPosition(i, 0), nil
	default:
		return domain.Position{}, fmt.Errorf("%w: entry %d has type %T", domain.ErrInvalidIndex, i, e)
	}
}

// JumpToSubEntry returns the position of item j inside group entry i.
func JumpToSubEntry(q []domain.QueueEntry, i, j int) (domain.Position, error) {
	if i < 0 || i >= len(q) {
		return domain.Position{}, fmt.Errorf("%w: entry %d of %d", domain.ErrInvalidIndex, i, len(q))
	}

	g, ok := q[i].(domain.Group)
	if !ok {
		return domain.Position{}, fmt.Errorf("%w: entry %d", domain.ErrNotGroup, i)
	}
	if n := len(g.Tracks()); j < 0 || j >= n {
		return domain.Position{}, fmt.Errorf("%w: item %d of %d in entry %d", domain.ErrInvalidIndex, j, n, i)
	}
	return domain.GroupPosition(i, j), nil
}

// Append returns a new queue holding q followed by entries. q is not modified.
func Append(q, entries []domain.QueueEntry) []domain.QueueEntry {
	out := make([]domain.QueueEntry, 0, len(q)+len(entries))
	out = append(out, q...)
	return append(out, entries...)
}

// TrackCount returns the number of playable tracks in q.
func TrackCount(q []domain.QueueEntry) int {
	n := 0
	for _, e := range q {
		switch v := e.(type) {
		case domain.Track:
			n++
		case domain.Group:
			n += len(v.Tracks())
		}
	}
	return n
}

func firstFrom(q []domain.QueueEntry, from int) (domain.Position, bool) {
	for i := max(from, 0); i < len(q); i++ {
		switch e := q[i].(type) {
		case domain.Track:
			return domain.TrackPosition(i), true
		case domain.Group:
			if len(e.Tracks()) > 0 {
				return domain.GroupPosition(i, 0), true
			}
		}
	}
	return domain.Position{}, false
}

func lastFrom(q []domain.QueueEntry, from int) (domain.Position, bool) {
	for i := min(from, len(q)-1); i >= 0; i-- {
		switch e := q[i].(type) {
		case domain.Track:
			return domain.TrackPosition(i), true
		case domain.Group:
			if n := len(e.Tracks()); n > 0 {
				return domain.GroupPosition(i, n-1), true
			}
		}
	}
	return domain.Position{}, false
}
