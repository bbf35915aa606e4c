// Package playback coordinates the queue engine with the audio backend.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No track selected (queue empty or cleared)
	StatePlaying              // Track is playing
	StatePaused               // Track selected but not playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
