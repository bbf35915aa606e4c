package playback

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/melodeck/internal/app/queue"
	"github.com/osa030/melodeck/internal/audio"
	"github.com/osa030/melodeck/internal/domain/track"
)

// Seek snap-back guard: progress reports arriving shortly after a seek
// may still carry the pre-seek position. Such reports are dropped for
// seekSettle if they differ from the requested target by more than
// seekTolerance, so the last requested seek always wins.
const (
	seekSettle    = 300 * time.Millisecond
	seekTolerance = time.Second
)

// Config holds coordinator configuration.
type Config struct {
	InitialVolume int            // 0-100
	InitialLoop   queue.LoopMode // Loop mode at startup
}

// Coordinator bridges queue engine transitions to the audio backend and
// folds backend events back into observable playback state. All state
// mutations, whether user commands or backend events, are applied under
// a single mutex.
type Coordinator struct {
	mu sync.RWMutex

	engine  *queue.Engine
	backend audio.Backend

	state    State
	position time.Duration
	duration time.Duration
	volume   int
	muted    bool

	// session tags each backend load; events carrying another session
	// belong to a track that is no longer current and are discarded.
	session uint64
	loaded  bool

	seekTarget time.Duration
	lastSeekAt time.Time

	eventCh chan Event
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewCoordinator creates a coordinator and starts consuming backend events.
func NewCoordinator(engine *queue.Engine, backend audio.Backend, cfg Config) *Coordinator {
	volume := cfg.InitialVolume
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		engine:  engine,
		backend: backend,
		state:   StateIdle,
		volume:  volume,
		eventCh: make(chan Event, 32),
		ctx:     ctx,
		cancel:  cancel,
	}
	engine.SetLoop(cfg.InitialLoop)

	go c.consumeBackendEvents()
	return c
}

// Events returns the event channel for state observers.
func (c *Coordinator) Events() <-chan Event {
	return c.eventCh
}

// Close stops the coordinator and the backend.
func (c *Coordinator) Close() {
	c.cancel()
	_ = c.backend.Stop()
	close(c.eventCh)
}

// PlayTracks replaces the queue with the given track list and starts
// playing the track at startIndex. This is the "play this track from a
// selection" entry point: the whole selection becomes the queue so Next
// advances through the rest of it.
func (c *Coordinator) PlayTracks(tracks []track.Track, startIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sig := c.engine.SetItems(tracks, startIndex)
	c.applySignalLocked(sig)
	c.sendEventLocked(Event{Type: EventQueueChanged, Snapshot: c.snapshotLocked()})
}

// Enqueue appends a track to the queue, starting playback when the
// queue was empty.
func (c *Coordinator) Enqueue(t track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sig := c.engine.Enqueue(t)
	c.applySignalLocked(sig)
	c.sendEventLocked(Event{Type: EventQueueChanged, Snapshot: c.snapshotLocked()})
}

// EnqueueMany appends tracks to the queue.
func (c *Coordinator) EnqueueMany(tracks []track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sig := c.engine.EnqueueMany(tracks)
	c.applySignalLocked(sig)
	c.sendEventLocked(Event{Type: EventQueueChanged, Snapshot: c.snapshotLocked()})
}

// RemoveAt removes the queue entry at the given index.
func (c *Coordinator) RemoveAt(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sig, err := c.engine.RemoveAt(index)
	if err != nil {
		return err
	}
	c.applySignalLocked(sig)
	c.sendEventLocked(Event{Type: EventQueueChanged, Snapshot: c.snapshotLocked()})
	return nil
}

// Reorder relocates one queue entry; this is what a completed drag
// gesture resolves to.
func (c *Coordinator) Reorder(fromIndex, toIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.engine.Reorder(fromIndex, toIndex); err != nil {
		return err
	}
	c.sendEventLocked(Event{Type: EventQueueChanged, Snapshot: c.snapshotLocked()})
	return nil
}

// Clear empties the queue and stops playback.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	sig := c.engine.Clear()
	c.applySignalLocked(sig)
	c.sendEventLocked(Event{Type: EventQueueEmpty, Snapshot: c.snapshotLocked()})
}

// ToggleShuffle flips shuffle mode without interrupting playback.
func (c *Coordinator) ToggleShuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	on := c.engine.ToggleShuffle()
	c.sendEventLocked(Event{Type: EventQueueChanged, Snapshot: c.snapshotLocked()})
	return on
}

// CycleLoop advances the loop mode.
func (c *Coordinator) CycleLoop() queue.LoopMode {
	c.mu.Lock()
	defer c.mu.Unlock()

	mode := c.engine.CycleLoop()
	c.sendEventLocked(Event{Type: EventStateChanged, Snapshot: c.snapshotLocked()})
	return mode
}

// Next advances to the next track; shared by the next button and
// auto-advance.
func (c *Coordinator) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.applySignalLocked(c.engine.Next())
	c.sendEventLocked(Event{Type: EventTrackChanged, Snapshot: c.snapshotLocked()})
}

// Previous steps back through the play history.
func (c *Coordinator) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.applySignalLocked(c.engine.Previous())
	c.sendEventLocked(Event{Type: EventTrackChanged, Snapshot: c.snapshotLocked()})
}

// PlayIndex jumps directly to a queue position (UI row activation).
func (c *Coordinator) PlayIndex(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sig, err := c.engine.PlayIndex(index)
	if err != nil {
		return err
	}
	c.applySignalLocked(sig)
	c.sendEventLocked(Event{Type: EventTrackChanged, Snapshot: c.snapshotLocked()})
	return nil
}

// Play starts or resumes playback.
func (c *Coordinator) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePlaying:
		return
	case StatePaused:
		if c.loaded {
			_ = c.backend.Play()
			c.state = StatePlaying
		} else {
			// Nothing loaded (stopped after removal or end of queue):
			// start the selected track from scratch.
			c.startCurrentLocked()
		}
	case StateIdle:
		if _, ok := c.engine.CurrentTrack(); ok {
			c.startCurrentLocked()
		} else {
			c.applySignalLocked(c.engine.Next())
		}
	}
	c.sendEventLocked(Event{Type: EventStateChanged, Snapshot: c.snapshotLocked()})
}

// Pause suspends playback, freezing the position.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlaying {
		return
	}
	_ = c.backend.Pause()
	c.state = StatePaused
	c.sendEventLocked(Event{Type: EventStateChanged, Snapshot: c.snapshotLocked()})
}

// TogglePlay flips between playing and paused.
func (c *Coordinator) TogglePlay() {
	c.mu.RLock()
	playing := c.state == StatePlaying
	c.mu.RUnlock()

	if playing {
		c.Pause()
	} else {
		c.Play()
	}
}

// Seek moves the position to fraction (clamped to [0,1]) of the known
// duration. The last requested seek always wins over in-flight progress
// reports.
func (c *Coordinator) Seek(fraction float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if c.duration <= 0 {
		return
	}

	target := time.Duration(fraction * float64(c.duration))
	c.position = target
	c.seekTarget = target
	c.lastSeekAt = time.Now()
	_ = c.backend.Seek(target)
	c.sendEventLocked(Event{Type: EventProgress, Snapshot: c.snapshotLocked()})
}

// SetVolume sets the volume percentage, clamped to 0-100. Every update
// is applied immediately; the final value of a drag is whatever was set
// last.
func (c *Coordinator) SetVolume(percent int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	c.volume = percent
	_ = c.backend.SetVolume(c.effectiveVolumeLocked())
	c.sendEventLocked(Event{Type: EventStateChanged, Snapshot: c.snapshotLocked()})
}

// ToggleMute flips mute without touching the stored volume.
func (c *Coordinator) ToggleMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.muted = !c.muted
	_ = c.backend.SetVolume(c.effectiveVolumeLocked())
	c.sendEventLocked(Event{Type: EventStateChanged, Snapshot: c.snapshotLocked()})
	return c.muted
}

func (c *Coordinator) effectiveVolumeLocked() int {
	if c.muted {
		return 0
	}
	return c.volume
}

// Snapshot returns the current queue and playback state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// QueueTracks returns the queued tracks in playback order.
func (c *Coordinator) QueueTracks() []track.Track {
	return c.engine.Items()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	s := Snapshot{
		State:       c.state,
		IsPlaying:   c.state == StatePlaying,
		QueueIndex:  c.engine.CurrentIndex(),
		QueueLength: c.engine.Len(),
		Position:    c.position,
		Duration:    c.duration,
		Volume:      c.volume,
		Muted:       c.muted,
		Shuffle:     c.engine.ShuffleEnabled(),
		Loop:        c.engine.Loop(),
	}
	if t, ok := c.engine.CurrentTrack(); ok {
		s.Track = &t
	}
	return s
}

// applySignalLocked carries out the playback side effect a queue
// mutation asks for.
func (c *Coordinator) applySignalLocked(sig queue.Signal) {
	switch sig {
	case queue.SignalPlay:
		c.startCurrentLocked()
	case queue.SignalReplay:
		c.position = 0
		c.seekTarget = 0
		c.lastSeekAt = time.Now()
		_ = c.backend.Seek(0)
		_ = c.backend.Play()
		c.state = StatePlaying
	case queue.SignalStop:
		_ = c.backend.Stop()
		c.loaded = false
		c.state = StatePaused
		c.position = 0
		if t, ok := c.engine.CurrentTrack(); ok {
			c.duration = t.Duration
		}
	case queue.SignalClear:
		_ = c.backend.Stop()
		c.loaded = false
		c.state = StateIdle
		c.position = 0
		c.duration = 0
	}
}

// startCurrentLocked loads and plays the queue's current track under a
// fresh session tag, which implicitly cancels interest in events from
// the previous track.
func (c *Coordinator) startCurrentLocked() {
	t, ok := c.engine.CurrentTrack()
	if !ok {
		c.state = StateIdle
		c.loaded = false
		return
	}

	c.session++
	c.position = 0
	c.duration = t.Duration // provisional until the backend reports its own
	c.seekTarget = 0
	c.lastSeekAt = time.Time{}

	if err := c.backend.Load(c.session, t); err != nil {
		// Playback failure: keep the current selection, do not
		// auto-skip; a cascade of skips would mask the real problem.
		zlog.Warn().Msgf("playback: load failed for %s: %v", t.ID, err)
		c.loaded = false
		c.state = StatePaused
		return
	}
	c.loaded = true
	_ = c.backend.SetVolume(c.effectiveVolumeLocked())
	_ = c.backend.Play()
	c.state = StatePlaying
	zlog.Debug().Msgf("playback: started %s (%s) session=%d", t.Title, t.ID, c.session)
}

// consumeBackendEvents applies asynchronous backend reports atomically
// with respect to user commands.
func (c *Coordinator) consumeBackendEvents() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case e, ok := <-c.backend.Events():
			if !ok {
				return
			}
			c.handleBackendEvent(e)
		}
	}
}

func (c *Coordinator) handleBackendEvent(e audio.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A stale event tagged to a track that is no longer current must
	// not touch the new track's state.
	if e.Session != c.session {
		return
	}

	switch e.Type {
	case audio.EventProgress:
		// A zero duration report never overwrites a known duration.
		if e.Duration > 0 {
			c.duration = e.Duration
		}
		if c.state == StatePlaying && c.acceptPositionLocked(e.Position) {
			c.position = e.Position
		}
		c.sendEventLocked(Event{Type: EventProgress, Snapshot: c.snapshotLocked()})

	case audio.EventEnded:
		c.applySignalLocked(c.engine.Next())
		c.sendEventLocked(Event{Type: EventTrackChanged, Snapshot: c.snapshotLocked()})

	case audio.EventFailed:
		zlog.Warn().Msgf("playback: backend failure: %v", e.Err)
		c.state = StatePaused
		c.sendEventLocked(Event{Type: EventStateChanged, Snapshot: c.snapshotLocked()})
	}
}

// acceptPositionLocked rejects progress positions that would snap the
// slider back right after a seek.
func (c *Coordinator) acceptPositionLocked(pos time.Duration) bool {
	if c.lastSeekAt.IsZero() || time.Since(c.lastSeekAt) > seekSettle {
		return true
	}
	diff := pos - c.seekTarget
	if diff < 0 {
		diff = -diff
	}
	return diff <= seekTolerance
}

// sendEventLocked sends an event without blocking. Observers that fall
// behind lose intermediate snapshots, never the final one delivered by
// the next send.
func (c *Coordinator) sendEventLocked(e Event) {
	select {
	case c.eventCh <- e:
	case <-c.ctx.Done():
	default:
	}
}
