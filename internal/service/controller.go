// Package service provides the playback core of tunedeck.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
	"github.com/tejashwikalptaru/tunedeck/internal/queue"
)

// ControllerOption configures a PlaybackController.
type ControllerOption func(*PlaybackController)

// WithStrictInvariants makes the controller panic on an invalid queue position
// instead of logging it and clamping to the start of the queue.
func WithStrictInvariants(strict bool) ControllerOption {
	return func(c *PlaybackController) {
		c.strict = strict
	}
}

// WithClock sets the clock used to timestamp commands.
func WithClock(clock func() time.Time) ControllerOption {
	return func(c *PlaybackController) {
		c.clock = clock
	}
}

// WithRepeat sets the repeat state the controller starts with once connected.
func WithRepeat(repeat domain.RepeatState) ControllerOption {
	return func(c *PlaybackController) {
		c.initialRepeat = repeat
	}
}

// command is one unit of work for the controller goroutine.
type command struct {
	name     string
	issuedAt time.Time

	// available is true when the command only applies in StatusAvailable
	available bool

	run func()
}

// PlaybackController owns the playback queue and the engine and publishes PlayerState snapshots.
//
// All state changes run on a single goroutine. Commands are queued in an unbounded FIFO
// mailbox and applied in issue order; engine events are applied between commands, never
// in the middle of one. Commands return immediately and their results are observed through
// the next published state.
//
// Thread-safety: all exported methods are safe for concurrent use.
type PlaybackController struct {
	// Dependencies (injected)
	logger *slog.Logger
	engine ports.PlaybackEngine
	bus    ports.EventBus
	states *StateBroadcaster

	// Configuration
	clock         func() time.Time
	strict        bool
	initialRepeat domain.RepeatState
	sessionID     string

	// Mailbox
	mu      sync.Mutex
	pending []command
	signal  chan struct{}

	// Lifetime
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	releaseOnce sync.Once

	// State owned by the controller goroutine
	status   domain.ControllerStatus
	snap     domain.PlaybackSnapshot
	intentAt time.Time
}

// NewPlaybackController creates a controller and starts its goroutine.
// The controller starts Unavailable; call Connect to attach the engine.
// The owner must call Release exactly once when done; cancelling ctx only stops the goroutine.
func NewPlaybackController(
	ctx context.Context,
	logger *slog.Logger,
	engine ports.PlaybackEngine,
	bus ports.EventBus,
	opts ...ControllerOption,
) *PlaybackController {
	ctx, cancel := context.WithCancel(ctx)

	c := &PlaybackController{
		logger:    logger,
		engine:    engine,
		bus:       bus,
		states:    NewStateBroadcaster(domain.Unavailable{}),
		clock:     time.Now,
		sessionID: uuid.NewString(),
		signal:    make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    domain.StatusUnavailable,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("session", c.sessionID))

	go c.run()
	return c
}

// State returns the current player state.
func (c *PlaybackController) State() domain.PlayerState {
	return c.states.Current()
}

// Subscribe returns a subscription that immediately holds the current state.
func (c *PlaybackController) Subscribe() *StateSubscription {
	return c.states.Subscribe()
}

// Done is closed when the controller goroutine has stopped.
func (c *PlaybackController) Done() <-chan struct{} {
	return c.done
}

// Connect attaches the engine: Unavailable, then Loading, then Available.
// A failed attach returns to Unavailable.
func (c *PlaybackController) Connect() error {
	return c.enqueue("connect", false, func() { c.connect() })
}

// PlayQueue replaces the queue with entries and starts playback at its first track.
// It returns domain.ErrEmptyQueue, and changes nothing, when entries hold no playable track.
func (c *PlaybackController) PlayQueue(entries []domain.QueueEntry) error {
	q := domain.FreezeEntries(entries)
	start, ok := queue.InitialPosition(q)
	if !ok {
		return domain.ErrEmptyQueue
	}
	return c.enqueue("play_queue", true, func() { c.playQueue(q, start) })
}

// AddToQueue appends entries. Playback is unaffected unless nothing was queued or playing,
// in which case the combined queue starts playing.
func (c *PlaybackController) AddToQueue(entries []domain.QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}
	added := domain.FreezeEntries(entries)
	return c.enqueue("add_to_queue", true, func() { c.addToQueue(added) })
}

// Next moves to the following track.
func (c *PlaybackController) Next() error {
	return c.enqueue("next", true, func() { c.next() })
}

// Previous moves to the preceding track.
func (c *PlaybackController) Previous() error {
	return c.enqueue("previous", true, func() { c.previous() })
}

// PlayQueueItem plays queue entry i from its first track.
func (c *PlaybackController) PlayQueueItem(i int) error {
	return c.enqueue("play_queue_item", true, func() {
		c.jump(func(q []domain.QueueEntry) (domain.Position, error) { return queue.JumpToEntry(q, i) })
	})
}

// PlayTrackInQueue plays item j of group entry i.
func (c *PlaybackController) PlayTrackInQueue(i, j int) error {
	return c.enqueue("play_track_in_queue", true, func() {
		c.jump(func(q []domain.QueueEntry) (domain.Position, error) { return queue.JumpToSubEntry(q, i, j) })
	})
}

// Play resumes playback. Ignored while a transition is in flight.
func (c *PlaybackController) Play() error {
	return c.enqueue("play", true, func() { c.play() })
}

// Pause pauses playback. Ignored while a transition is in flight.
func (c *PlaybackController) Pause() error {
	return c.enqueue("pause", true, func() { c.pause() })
}

// TogglePlayback pauses when playing and plays when paused.
func (c *PlaybackController) TogglePlayback() error {
	return c.enqueue("toggle_playback", true, func() {
		if c.snap.IsPlaying {
			c.pause()
		} else {
			c.play()
		}
	})
}

// Seek moves the playback position, clamped to the current track.
func (c *PlaybackController) Seek(position time.Duration) error {
	return c.enqueue("seek", true, func() { c.seek(position) })
}

// Repeat cycles the repeat state Off, Track, List.
func (c *PlaybackController) Repeat() error {
	return c.enqueue("repeat", true, func() { c.setRepeat(c.snap.Repeat.Next()) })
}

// SetRepeat sets the repeat state.
func (c *PlaybackController) SetRepeat(repeat domain.RepeatState) error {
	return c.enqueue("set_repeat", true, func() { c.setRepeat(repeat) })
}

// DismissError clears the sticky error of the last failed engine operation.
func (c *PlaybackController) DismissError() error {
	return c.enqueue("dismiss_error", true, func() {
		if c.snap.Err == nil {
			return
		}
		next := c.snap
		next.Err = nil
		c.commit(next)
	})
}

// Release stops the controller goroutine, closes the engine and publishes Unavailable.
// It is idempotent. Commands issued afterwards return domain.ErrReleased.
func (c *PlaybackController) Release() {
	c.releaseOnce.Do(func() {
		c.mu.Lock()
		c.cancel()
		c.pending = nil
		c.mu.Unlock()

		<-c.done

		if err := c.engine.Close(); err != nil {
			c.logger.Warn("failed to close engine", slog.Any("error", err))
		}
		c.status = domain.StatusUnavailable
		c.states.Publish(domain.Unavailable{})
		c.states.Close()
		c.logger.Debug("controller released")
	})
}

func (c *PlaybackController) enqueue(name string, available bool, run func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx.Err() != nil {
		return domain.ErrReleased
	}
	c.pending = append(c.pending, command{
		name:      name,
		issuedAt:  c.clock(),
		available: available,
		run:       run,
	})

	select {
	case c.signal <- struct{}{}:
	default:
	}
	return nil
}

func (c *PlaybackController) drain() []command {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmds := c.pending
	c.pending = nil
	return cmds
}

func (c *PlaybackController) run() {
	defer close(c.done)

	events := c.engine.Events()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.signal:
			for _, cmd := range c.drain() {
				if c.ctx.Err() != nil {
					return
				}
				c.execute(cmd)
			}
		case ev := <-events:
			if c.status == domain.StatusAvailable {
				c.handleEngineEvent(ev)
			}
		}
	}
}

func (c *PlaybackController) execute(cmd command) {
	if cmd.available && c.status != domain.StatusAvailable {
		c.logger.Debug("command ignored",
			slog.String("command", cmd.name),
			slog.String("status", c.status.String()))
		return
	}
	c.logger.Debug("applying command",
		slog.String("command", cmd.name),
		slog.Duration("queued", c.clock().Sub(cmd.issuedAt)))
	cmd.run()
}

// Engine event reconciliation

func (c *PlaybackController) handleEngineEvent(ev domain.EngineEvent) {
	switch e := ev.(type) {
	case domain.PositionTickEvent:
		c.positionTick(e)
	case domain.TrackEndedEvent:
		c.trackEnded(e)
	case domain.EngineErrorEvent:
		c.engineError(e)
	}
}

func (c *PlaybackController) positionTick(e domain.PositionTickEvent) {
	if !c.snap.Enabled || !c.hasTrack() {
		return
	}
	// A tick sampled before the last local intent describes a position the user already left.
	if e.Timestamp().Before(c.intentAt) {
		c.logger.Debug("stale position tick dropped", slog.Duration("position", e.Position))
		return
	}

	elapsed := clamp(e.Position, 0, c.snap.Duration)
	if elapsed == c.snap.Elapsed {
		return
	}
	next := c.snap
	next.Elapsed = elapsed
	c.commit(next)
}

func (c *PlaybackController) trackEnded(e domain.TrackEndedEvent) {
	if !c.hasTrack() || e.Timestamp().Before(c.intentAt) {
		return
	}
	if c.snap.Repeat == domain.RepeatTrack {
		c.transition(c.snap.Queue, c.snap.Position, true, true)
		return
	}
	c.next()
}

func (c *PlaybackController) engineError(e domain.EngineErrorEvent) {
	c.logger.Error("engine error", slog.Any("error", e.Err))
	c.silenceEngine()

	next := c.snap
	next.IsPlaying = false
	next.Err = e.Err
	c.commit(next)

	if track, err := queue.CurrentTrack(c.snap.Queue, c.snap.Position); err == nil {
		c.publish(domain.NewTrackErrorEvent(track, e.Err))
	}
}

// Commands

func (c *PlaybackController) connect() {
	if c.status != domain.StatusUnavailable {
		c.logger.Debug("already connected", slog.String("status", c.status.String()))
		return
	}

	c.status = domain.StatusLoading
	c.states.Publish(domain.Loading{})

	if err := c.engine.Open(c.ctx); err != nil {
		c.logger.Error("failed to open engine", slog.Any("error", err))
		c.status = domain.StatusUnavailable
		c.states.Publish(domain.Unavailable{})
		return
	}

	c.status = domain.StatusAvailable
	c.commit(domain.PlaybackSnapshot{
		Position: domain.TrackPosition(0),
		Repeat:   c.initialRepeat,
		Enabled:  true,
	})
	c.logger.Info("engine connected", slog.String("repeat", c.initialRepeat.String()))
}

func (c *PlaybackController) playQueue(q []domain.QueueEntry, start domain.Position) {
	c.publish(domain.NewQueueReplacedEvent(len(q)))
	c.transition(q, start, true, false)
}

func (c *PlaybackController) addToQueue(added []domain.QueueEntry) {
	combined := queue.Append(c.snap.Queue, added)

	if !c.hasTrack() && !c.snap.IsPlaying {
		if start, ok := queue.InitialPosition(combined); ok {
			c.publish(domain.NewQueueAppendedEvent(len(added), len(combined)))
			c.transition(combined, start, true, false)
			return
		}
	}

	next := c.snap
	next.Queue = combined
	c.commit(next)
	c.publish(domain.NewQueueAppendedEvent(len(added), len(combined)))
}

func (c *PlaybackController) next() {
	if !c.hasTrack() {
		return
	}
	target, ok := queue.Advance(c.snap.Queue, c.snap.Position, c.snap.Repeat)
	if !ok {
		c.finish(true)
		return
	}
	c.transition(c.snap.Queue, target, false, true)
}

func (c *PlaybackController) previous() {
	if !c.hasTrack() {
		return
	}
	target, ok := queue.Retreat(c.snap.Queue, c.snap.Position)
	if !ok {
		c.finish(false)
		return
	}
	c.transition(c.snap.Queue, target, false, true)
}

func (c *PlaybackController) jump(target func([]domain.QueueEntry) (domain.Position, error)) {
	pos, err := target(c.snap.Queue)
	if err != nil {
		c.logger.Warn("invalid queue selection", slog.Any("error", err))
		return
	}
	c.transition(c.snap.Queue, pos, true, true)
}

// finish stops at the current position without unloading the track.
func (c *PlaybackController) finish(exhausted bool) {
	if c.snap.IsPlaying {
		if err := c.engine.Pause(); err != nil {
			c.logger.Warn("failed to pause engine", slog.Any("error", err))
		}
	}

	next := c.snap
	next.IsPlaying = false
	next.Enabled = true
	c.commit(next)

	if exhausted {
		c.publish(domain.NewQueueFinishedEvent(next.Position))
	}
}

func (c *PlaybackController) play() {
	if !c.snap.Enabled || !c.hasTrack() || c.snap.IsPlaying {
		return
	}

	next := c.snap
	if err := c.engine.Play(); err != nil {
		c.logger.Error("failed to start playback", slog.Any("error", err))
		next.Err = err
		c.commit(next)
		return
	}
	next.IsPlaying = true
	c.commit(next)

	if track, err := queue.CurrentTrack(next.Queue, next.Position); err == nil {
		c.publish(domain.NewPlaybackStartedEvent(track))
	}
}

func (c *PlaybackController) pause() {
	if !c.snap.Enabled || !c.hasTrack() || !c.snap.IsPlaying {
		return
	}

	next := c.snap
	if err := c.engine.Pause(); err != nil {
		c.logger.Error("failed to pause playback", slog.Any("error", err))
		next.Err = err
	}
	next.IsPlaying = false
	c.commit(next)

	if track, err := queue.CurrentTrack(next.Queue, next.Position); err == nil {
		c.publish(domain.NewPlaybackPausedEvent(track, next.Elapsed))
	}
}

func (c *PlaybackController) seek(position time.Duration) {
	if !c.snap.Enabled || !c.hasTrack() {
		return
	}

	target := clamp(position, 0, c.snap.Duration)
	if err := c.engine.Seek(target); err != nil {
		c.logger.Warn("seek failed", slog.Duration("position", target), slog.Any("error", err))
		return
	}

	c.intentAt = c.clock()
	next := c.snap
	next.Elapsed = target
	c.commit(next)
}

func (c *PlaybackController) setRepeat(repeat domain.RepeatState) {
	if repeat == c.snap.Repeat {
		return
	}
	next := c.snap
	next.Repeat = repeat
	c.commit(next)
	c.publish(domain.NewRepeatChangedEvent(repeat))
}

// transition moves to target in q and loads its track.
// Controls are disabled until the engine acknowledges the load. On success playback starts
// when startPlaying is set and otherwise keeps its prior state. On failure the error becomes
// sticky, playback stops and, when keepQueue is set, the previous position is restored.
func (c *PlaybackController) transition(q []domain.QueueEntry, target domain.Position, startPlaying, keepQueue bool) {
	prev := c.snap

	track, err := queue.CurrentTrack(q, target)
	if err != nil {
		target, track, err = c.recoverPosition(q, err)
		if err != nil {
			return
		}
	}

	loading := prev
	loading.Queue = q
	loading.Position = target
	loading.Enabled = false
	c.commit(loading)

	duration, err := c.engine.Load(c.ctx, track)
	if err != nil {
		if c.ctx.Err() != nil {
			return
		}
		c.loadFailed(prev, loading, track, err, keepQueue)
		return
	}

	loaded := loading
	loaded.Enabled = true
	loaded.Elapsed = 0
	loaded.Duration = duration
	loaded.IsPlaying = startPlaying || prev.IsPlaying

	if loaded.IsPlaying {
		if err := c.engine.Play(); err != nil {
			c.logger.Error("failed to start playback", slog.Any("error", err))
			loaded.IsPlaying = false
			loaded.Err = err
		}
	}

	c.intentAt = c.clock()
	c.commit(loaded)

	c.logger.Debug("track loaded",
		slog.Int64("track_id", track.ID),
		slog.Int("entry", target.Entry),
		slog.Int("sub", target.Sub))
	c.publish(domain.NewTrackLoadedEvent(track, target, duration))
	if loaded.IsPlaying {
		c.publish(domain.NewPlaybackStartedEvent(track))
	}
}

func (c *PlaybackController) loadFailed(prev, loading domain.PlaybackSnapshot, track domain.Track, err error, keepQueue bool) {
	loadErr := domain.NewEngineLoadError(track, err)
	c.logger.Error("failed to load track", slog.Any("error", loadErr))

	failed := loading
	if keepQueue && prev.HasQueue() {
		failed.Position = prev.Position
		failed.Elapsed = prev.Elapsed
		failed.Duration = prev.Duration
	} else {
		failed.Elapsed = 0
		failed.Duration = track.Duration
	}
	failed.Enabled = true
	failed.IsPlaying = false
	failed.Err = loadErr
	if prev.IsPlaying {
		// The engine still holds the previous track
		c.silenceEngine()
	}
	c.commit(failed)

	c.publish(domain.NewTrackErrorEvent(track, loadErr))
}

// silenceEngine pauses whatever the engine still holds so it agrees with a snapshot that is not playing.
func (c *PlaybackController) silenceEngine() {
	if err := c.engine.Pause(); err != nil && !errors.Is(err, domain.ErrNoTrackLoaded) {
		c.logger.Warn("failed to pause engine after error", slog.Any("error", err))
	}
}

// recoverPosition handles a position that violates the queue invariant.
// Strict controllers panic; others log the violation and fall back to the first track.
func (c *PlaybackController) recoverPosition(q []domain.QueueEntry, cause error) (domain.Position, domain.Track, error) {
	if c.strict {
		panic(cause)
	}
	c.logger.Error("invalid queue position, clamping to start", slog.Any("error", cause))

	start, ok := queue.InitialPosition(q)
	if !ok {
		return domain.Position{}, domain.Track{}, errors.Join(cause, domain.ErrEmptyQueue)
	}
	track, err := queue.CurrentTrack(q, start)
	return start, track, err
}

// hasTrack reports whether the current snapshot points at a playable track.
func (c *PlaybackController) hasTrack() bool {
	return c.snap.HasQueue() && queue.Validate(c.snap.Queue, c.snap.Position) == nil
}

func (c *PlaybackController) commit(next domain.PlaybackSnapshot) {
	next.Generation = c.snap.Generation + 1
	c.snap = next
	c.states.Publish(domain.Available{Snapshot: next})
}

func (c *PlaybackController) publish(event domain.Event) {
	if c.bus != nil {
		c.bus.Publish(event)
	}
}

func clamp(d, lo, hi time.Duration) time.Duration {
	return max(lo, min(d, hi))
}
