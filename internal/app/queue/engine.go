// Package queue provides the ordered, shuffleable, loopable playback queue.
package queue

import (
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/melodeck/internal/domain/track"
)

// Errors
var (
	ErrOutOfRange = errors.New("index out of range")
	ErrEmptyQueue = errors.New("queue is empty")
)

// Config holds engine configuration.
type Config struct {
	DedupWindow time.Duration // Window in which a repeated enqueue of the same track is ignored
	Rand        *rand.Rand    // Random source for shuffle (nil for a time-seeded source)
}

// DefaultDedupWindow is the default window for collapsing repeated
// enqueues of the same track into a single entry.
const DefaultDedupWindow = 500 * time.Millisecond

// Engine owns the ordered play sequence, the current position, the
// shuffle/loop modes and the play history. All mutations are serialized
// behind a single mutex; asynchronous effects are the caller's concern
// and are expressed through the returned Signal.
type Engine struct {
	mu sync.RWMutex

	items         []track.Track
	originalOrder []track.Track // Pre-shuffle snapshot, nil while shuffle is off
	currentIndex  int           // -1 when nothing is selected
	shuffle       bool
	loop          LoopMode
	history       []int // Previously visited indices, newest last

	rng           *rand.Rand
	dedupWindow   time.Duration
	lastEnqueueID string
	lastEnqueueAt time.Time
}

// New creates a new queue engine.
func New(cfg Config) *Engine {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	window := cfg.DedupWindow
	if window == 0 {
		window = DefaultDedupWindow
	}
	return &Engine{
		items:        make([]track.Track, 0),
		currentIndex: -1,
		loop:         LoopOff,
		history:      make([]int, 0),
		rng:          rng,
		dedupWindow:  window,
	}
}

// SetItems replaces the whole sequence and selects the track at
// startIndex (falling back to 0 when startIndex is out of range).
// The play history is reset. An empty track list behaves like Clear.
func (e *Engine) SetItems(tracks []track.Track, startIndex int) Signal {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = make([]track.Track, len(tracks))
	copy(e.items, tracks)
	e.history = e.history[:0]
	e.originalOrder = nil

	if len(e.items) == 0 {
		e.currentIndex = -1
		return SignalClear
	}

	if startIndex < 0 || startIndex >= len(e.items) {
		startIndex = 0
	}
	e.currentIndex = startIndex

	if e.shuffle {
		e.snapshotAndShuffleLocked()
	}

	zlog.Debug().Msgf("queue: set %d items, start=%d", len(e.items), e.currentIndex)
	return SignalPlay
}

// Enqueue appends a track to the end of the queue. If the queue was
// empty the track becomes current and playback starts. A repeated
// enqueue of the same track within the dedup window is ignored, so a
// rapid double activation of the same control adds only one entry.
func (e *Engine) Enqueue(t track.Track) Signal {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.enqueueLocked(t)
}

// EnqueueMany appends tracks to the end of the queue without disturbing
// the current position, except that the first track starts playback
// when the queue was empty.
func (e *Engine) EnqueueMany(tracks []track.Track) Signal {
	e.mu.Lock()
	defer e.mu.Unlock()

	signal := SignalNone
	for _, t := range tracks {
		if s := e.enqueueLocked(t); s == SignalPlay {
			signal = SignalPlay
		}
	}
	return signal
}

func (e *Engine) enqueueLocked(t track.Track) Signal {
	now := time.Now()
	if t.ID == e.lastEnqueueID && now.Sub(e.lastEnqueueAt) < e.dedupWindow {
		zlog.Debug().Msgf("queue: dropped duplicate enqueue of %s", t.ID)
		return SignalNone
	}
	e.lastEnqueueID = t.ID
	e.lastEnqueueAt = now

	e.items = append(e.items, t)
	if e.originalOrder != nil {
		e.originalOrder = append(e.originalOrder, t)
	}

	if e.currentIndex < 0 {
		e.currentIndex = len(e.items) - 1
		return SignalPlay
	}
	return SignalNone
}

// RemoveAt removes one entry. Removing an entry before the current one
// shifts the current index down so it keeps pointing at the same track.
// Removing the current entry selects the track that shifted into its
// slot (or empties the queue) and stops playback rather than jumping
// ahead on its own.
func (e *Engine) RemoveAt(index int) (Signal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.items) == 0 {
		return SignalNone, ErrEmptyQueue
	}
	if index < 0 || index >= len(e.items) {
		return SignalNone, errors.Wrapf(ErrOutOfRange, "remove %d of %d", index, len(e.items))
	}

	removed := e.items[index]
	e.items = append(e.items[:index], e.items[index+1:]...)

	if e.originalOrder != nil {
		for i, t := range e.originalOrder {
			if t.ID == removed.ID {
				e.originalOrder = append(e.originalOrder[:i], e.originalOrder[i+1:]...)
				break
			}
		}
	}

	// Drop history entries for the removed slot and shift the rest.
	kept := e.history[:0]
	for _, h := range e.history {
		if h == index {
			continue
		}
		if h > index {
			h--
		}
		kept = append(kept, h)
	}
	e.history = kept

	switch {
	case index < e.currentIndex:
		e.currentIndex--
		return SignalNone, nil
	case index == e.currentIndex:
		if len(e.items) == 0 {
			e.currentIndex = -1
			return SignalClear, nil
		}
		if e.currentIndex >= len(e.items) {
			e.currentIndex = len(e.items) - 1
		}
		return SignalStop, nil
	default:
		return SignalNone, nil
	}
}

// Clear empties the queue and resets the current position and history.
func (e *Engine) Clear() Signal {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = e.items[:0]
	e.originalOrder = nil
	e.currentIndex = -1
	e.history = e.history[:0]
	zlog.Debug().Msg("queue: cleared")
	return SignalClear
}

// Reorder relocates one element from fromIndex to toIndex. The current
// index is recomputed so it keeps referencing the same track, not the
// same numeric slot. fromIndex == toIndex is a guaranteed no-op.
func (e *Engine) Reorder(fromIndex, toIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.items)
	if fromIndex < 0 || fromIndex >= n {
		return errors.Wrapf(ErrOutOfRange, "reorder from %d of %d", fromIndex, n)
	}
	if toIndex < 0 || toIndex >= n {
		return errors.Wrapf(ErrOutOfRange, "reorder to %d of %d", toIndex, n)
	}
	if fromIndex == toIndex {
		return nil
	}

	item := e.items[fromIndex]
	e.items = append(e.items[:fromIndex], e.items[fromIndex+1:]...)
	rest := append([]track.Track{item}, e.items[toIndex:]...)
	e.items = append(e.items[:toIndex], rest...)

	e.currentIndex = mapIndexAfterMove(e.currentIndex, fromIndex, toIndex)
	for i, h := range e.history {
		e.history[i] = mapIndexAfterMove(h, fromIndex, toIndex)
	}

	zlog.Debug().Msgf("queue: moved %d -> %d, current=%d", fromIndex, toIndex, e.currentIndex)
	return nil
}

// Move is an alias for Reorder.
func (e *Engine) Move(fromIndex, toIndex int) error {
	return e.Reorder(fromIndex, toIndex)
}

// mapIndexAfterMove returns where the element referenced by idx ends up
// after the element at from is removed and reinserted at to.
func mapIndexAfterMove(idx, from, to int) int {
	switch {
	case idx < 0:
		return idx
	case idx == from:
		return to
	case from < idx && idx <= to:
		return idx - 1
	case to <= idx && idx < from:
		return idx + 1
	default:
		return idx
	}
}

// ToggleShuffle flips shuffle mode. Enabling it snapshots the current
// order and permutes every entry except the one currently playing, so
// the playing track is not interrupted. Disabling it restores the
// snapshot and finds the current track's position within it.
// The play history is reset on either transition because its indices
// refer to the order that is being replaced.
func (e *Engine) ToggleShuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.shuffle {
		e.shuffle = true
		e.snapshotAndShuffleLocked()
		zlog.Debug().Msgf("queue: shuffle on, %d items", len(e.items))
		return true
	}

	e.shuffle = false
	if e.originalOrder != nil {
		var currentID string
		if e.currentIndex >= 0 && e.currentIndex < len(e.items) {
			currentID = e.items[e.currentIndex].ID
		}
		e.items = e.originalOrder
		e.originalOrder = nil
		e.currentIndex = -1
		for i, t := range e.items {
			if t.ID == currentID {
				e.currentIndex = i
				break
			}
		}
		if e.currentIndex < 0 && len(e.items) > 0 {
			e.currentIndex = 0
		}
	}
	e.history = e.history[:0]
	zlog.Debug().Msgf("queue: shuffle off, current=%d", e.currentIndex)
	return false
}

// snapshotAndShuffleLocked captures originalOrder and Fisher-Yates
// shuffles every position except the current one.
func (e *Engine) snapshotAndShuffleLocked() {
	e.originalOrder = make([]track.Track, len(e.items))
	copy(e.originalOrder, e.items)
	e.history = e.history[:0]

	positions := make([]int, 0, len(e.items))
	for i := range e.items {
		if i != e.currentIndex {
			positions = append(positions, i)
		}
	}
	for k := len(positions) - 1; k > 0; k-- {
		j := e.rng.Intn(k + 1)
		a, b := positions[k], positions[j]
		e.items[a], e.items[b] = e.items[b], e.items[a]
	}
}

// CycleLoop advances the loop mode through off -> all -> one -> off.
func (e *Engine) CycleLoop() LoopMode {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.loop = e.loop.Next()
	return e.loop
}

// SetLoop sets the loop mode directly (used when restoring config).
func (e *Engine) SetLoop(mode LoopMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loop = mode
}

// Next advances to the next track. It serves both the user's next
// button and the auto-advance on track end, so both share the same
// loop and end-of-queue behavior:
//
//   - loop one: the current track replays from the start
//   - more tracks ahead: advance, remembering the previous index
//   - at the end with loop all: wrap to the start
//   - at the end with loop off: stop, keeping the last index selected
//
// On an empty queue Next is a no-op, not an error.
func (e *Engine) Next() Signal {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.items) == 0 {
		return SignalNone
	}

	if e.currentIndex < 0 {
		e.currentIndex = 0
		return SignalPlay
	}

	if e.loop == LoopOne {
		return SignalReplay
	}

	if e.currentIndex+1 < len(e.items) {
		e.history = append(e.history, e.currentIndex)
		e.currentIndex++
		return SignalPlay
	}

	if e.loop == LoopAll {
		e.history = append(e.history, e.currentIndex)
		e.currentIndex = 0
		return SignalPlay
	}

	return SignalStop
}

// Previous steps back through the play history, which yields the
// previously heard track even under shuffle. With no history it falls
// back to a plain index decrement, and does nothing at the start.
func (e *Engine) Previous() Signal {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.items) == 0 {
		return SignalNone
	}

	if n := len(e.history); n > 0 {
		idx := e.history[n-1]
		e.history = e.history[:n-1]
		if idx < 0 || idx >= len(e.items) {
			idx = 0
		}
		e.currentIndex = idx
		return SignalPlay
	}

	if e.currentIndex > 0 {
		e.currentIndex--
		return SignalPlay
	}
	return SignalNone
}

// PlayIndex jumps directly to the given position, remembering the prior
// position in the play history.
func (e *Engine) PlayIndex(index int) (Signal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.items) == 0 {
		return SignalNone, ErrEmptyQueue
	}
	if index < 0 || index >= len(e.items) {
		return SignalNone, errors.Wrapf(ErrOutOfRange, "play index %d of %d", index, len(e.items))
	}

	if e.currentIndex >= 0 && e.currentIndex != index {
		e.history = append(e.history, e.currentIndex)
	}
	e.currentIndex = index
	return SignalPlay, nil
}

// Items returns a copy of the queue in playback order.
func (e *Engine) Items() []track.Track {
	e.mu.RLock()
	defer e.mu.RUnlock()

	items := make([]track.Track, len(e.items))
	copy(items, e.items)
	return items
}

// Len returns the number of queued tracks.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.items)
}

// IsEmpty returns true if the queue has no tracks.
func (e *Engine) IsEmpty() bool {
	return e.Len() == 0
}

// CurrentIndex returns the current position, -1 when nothing is selected.
func (e *Engine) CurrentIndex() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentIndex
}

// CurrentTrack returns the current track, if any.
func (e *Engine) CurrentTrack() (track.Track, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.currentIndex < 0 || e.currentIndex >= len(e.items) {
		return track.Track{}, false
	}
	return e.items[e.currentIndex], true
}

// ShuffleEnabled returns whether shuffle mode is on.
func (e *Engine) ShuffleEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.shuffle
}

// Loop returns the current loop mode.
func (e *Engine) Loop() LoopMode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loop
}

// History returns a copy of the play history, newest last.
func (e *Engine) History() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	h := make([]int, len(e.history))
	copy(h, e.history)
	return h
}
