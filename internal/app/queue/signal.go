package queue

// Signal tells the playback coordinator what a queue mutation requires of it.
// The engine itself never talks to the audio backend.
type Signal int

const (
	SignalNone   Signal = iota // Nothing for playback to do
	SignalPlay                 // Load and play the new current track from the start
	SignalReplay               // Restart the current track at position zero
	SignalStop                 // Stop playback but keep the current track selected
	SignalClear                // Stop playback and drop the current track (queue emptied)
)

// String returns the string representation of the signal.
func (s Signal) String() string {
	switch s {
	case SignalNone:
		return "none"
	case SignalPlay:
		return "play"
	case SignalReplay:
		return "replay"
	case SignalStop:
		return "stop"
	case SignalClear:
		return "clear"
	default:
		return "unknown"
	}
}
