package queue

import "github.com/tejashwikalptaru/tunedeck/internal/domain"

// ExhaustionAction is what navigation does after the last reachable position.
type ExhaustionAction int

const (
	// WrapToStart continues at the first reachable position
	WrapToStart ExhaustionAction = iota

	// ReplayCurrent keeps the current position so the same track plays again
	ReplayCurrent

	// Stop ends playback
	Stop
)

// String returns a human-readable representation of the action.
func (a ExhaustionAction) String() string {
	switch a {
	case WrapToStart:
		return "wrap"
	case ReplayCurrent:
		return "replay"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// OnQueueExhausted maps a repeat state to the action taken when the queue runs out.
func OnQueueExhausted(repeat domain.RepeatState) ExhaustionAction {
	switch repeat {
	case domain.RepeatList:
		return WrapToStart
	case domain.RepeatTrack:
		return ReplayCurrent
	default:
		return Stop
	}
}
