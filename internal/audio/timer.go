package audio

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/melodeck/internal/domain/track"
)

// TimerBackend simulates playback with a wall-clock timer. It is used
// when no audio device is available and for tracks without local audio
// data. Position advances in real time and an ended event fires when
// the track's known duration elapses; tracks with unknown duration
// play until stopped.
type TimerBackend struct {
	mu sync.Mutex

	session  uint64
	duration time.Duration
	playing  bool
	loaded   bool
	startAt  time.Time     // Wall-clock start of the current play stretch
	elapsed  time.Duration // Accumulated position up to startAt

	interval time.Duration
	events   chan Event
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewTimerBackend creates a timer-driven backend emitting progress
// events at the given interval.
func NewTimerBackend(interval time.Duration) *TimerBackend {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &TimerBackend{
		interval: interval,
		events:   make(chan Event, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
	go b.run()
	return b
}

// Load prepares the track; the clock does not start until Play.
func (b *TimerBackend) Load(session uint64, t track.Track) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = session
	b.duration = t.Duration
	b.playing = false
	b.loaded = true
	b.elapsed = 0
	b.startAt = time.Time{}
	zlog.Debug().Msgf("audio: timer load session=%d duration=%v", session, t.Duration)
	return nil
}

// Play starts or resumes the clock.
func (b *TimerBackend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.loaded || b.playing {
		return nil
	}
	b.playing = true
	b.startAt = toWallTime(time.Now())
	return nil
}

// Pause freezes the clock.
func (b *TimerBackend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.playing {
		return nil
	}
	b.elapsed += toWallTime(time.Now()).Sub(b.startAt)
	b.playing = false
	return nil
}

// Stop halts the clock and forgets the loaded track.
func (b *TimerBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.playing = false
	b.loaded = false
	b.elapsed = 0
	return nil
}

// Seek moves the simulated position.
func (b *TimerBackend) Seek(pos time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if pos < 0 {
		pos = 0
	}
	b.elapsed = pos
	b.startAt = toWallTime(time.Now())
	return nil
}

// SetVolume is a no-op for the timer backend.
func (b *TimerBackend) SetVolume(percent int) error {
	return nil
}

// Events returns the backend's event stream.
func (b *TimerBackend) Events() <-chan Event {
	return b.events
}

// Close stops the event loop.
func (b *TimerBackend) Close() error {
	b.cancel()
	return nil
}

// run emits progress on each tick and ended when the known duration
// elapses. Wall-clock arithmetic avoids monotonic clock drift over
// long sessions.
func (b *TimerBackend) run() {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.tick()
		}
	}
}

func (b *TimerBackend) tick() {
	b.mu.Lock()

	if !b.loaded || !b.playing {
		b.mu.Unlock()
		return
	}

	pos := b.elapsed + toWallTime(time.Now()).Sub(b.startAt)
	session := b.session
	duration := b.duration

	ended := duration > 0 && pos >= duration
	if ended {
		pos = duration
		b.playing = false
		b.loaded = false
		b.elapsed = 0
	}
	b.mu.Unlock()

	b.send(Event{Type: EventProgress, Session: session, Position: pos, Duration: duration})
	if ended {
		b.send(Event{Type: EventEnded, Session: session, Position: pos, Duration: duration})
	}
}

// send delivers an event without blocking; a slow consumer loses
// progress ticks, never commands.
func (b *TimerBackend) send(e Event) {
	select {
	case b.events <- e:
	case <-b.ctx.Done():
	default:
	}
}

// toWallTime strips the monotonic clock reading so that differences are
// computed with wall time.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
