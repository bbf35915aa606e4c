package playback

import (
	"time"

	"github.com/osa030/melodeck/internal/app/queue"
	"github.com/osa030/melodeck/internal/domain/track"
)

// EventType represents a playback event type.
type EventType int

const (
	EventTrackChanged EventType = iota // Current track changed
	EventStateChanged                  // Playing/paused/idle transition or volume change
	EventQueueChanged                  // Queue contents or order changed
	EventProgress                      // Position/duration update
	EventQueueEmpty                    // Queue became empty
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventStateChanged:
		return "state_changed"
	case EventQueueChanged:
		return "queue_changed"
	case EventProgress:
		return "progress"
	case EventQueueEmpty:
		return "queue_empty"
	default:
		return "unknown"
	}
}

// Snapshot is the full read-only view of queue and playback state that
// the UI layer observes.
type Snapshot struct {
	State       State
	IsPlaying   bool
	Track       *track.Track // Current track, nil when idle
	QueueIndex  int
	QueueLength int
	Position    time.Duration
	Duration    time.Duration
	Volume      int
	Muted       bool
	Shuffle     bool
	Loop        queue.LoopMode
}

// Event represents a playback event carrying the state after the change.
type Event struct {
	Type     EventType
	Snapshot Snapshot
}
