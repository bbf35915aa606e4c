// Package audio defines the playback backend boundary and its implementations.
package audio

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/melodeck/internal/domain/track"
)

// Errors
var (
	ErrUnavailable = errors.New("audio output unavailable")
	ErrNoAudioData = errors.New("track has no local audio data")
)

// EventType represents a backend event type.
type EventType int

const (
	EventProgress EventType = iota // Periodic position/duration report
	EventEnded                     // Current track played to the end
	EventFailed                    // Load or decode failure
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventProgress:
		return "progress"
	case EventEnded:
		return "ended"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is an asynchronous report from the backend. Session identifies
// the Load call the event belongs to, so reports from a track that is
// no longer current can be discarded.
type Event struct {
	Type     EventType
	Session  uint64
	Position time.Duration
	Duration time.Duration // Zero when the backend has not determined it yet
	Err      error         // Set for EventFailed
}

// Backend is the audio output boundary. Commands are fire-and-forget
// from the coordinator's perspective; results arrive on Events.
type Backend interface {
	// Load prepares the given track for playback under the given session tag.
	Load(session uint64, t track.Track) error
	// Play starts or resumes output.
	Play() error
	// Pause suspends output, keeping the position.
	Pause() error
	// Stop halts output and forgets the loaded track.
	Stop() error
	// Seek moves the playback position.
	Seek(pos time.Duration) error
	// SetVolume sets the output volume as a percentage, 0-100.
	SetVolume(percent int) error
	// Events returns the backend's event stream.
	Events() <-chan Event
	// Close releases backend resources.
	Close() error
}
