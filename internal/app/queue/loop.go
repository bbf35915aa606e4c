package queue

// LoopMode represents the queue loop mode.
type LoopMode int

const (
	LoopOff LoopMode = iota // Stop at the end of the queue
	LoopAll                 // Wrap to the start of the queue
	LoopOne                 // Replay the current track indefinitely
)

// String returns the string representation of the loop mode.
func (m LoopMode) String() string {
	switch m {
	case LoopOff:
		return "off"
	case LoopAll:
		return "all"
	case LoopOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows in the off -> all -> one -> off cycle.
func (m LoopMode) Next() LoopMode {
	switch m {
	case LoopOff:
		return LoopAll
	case LoopAll:
		return LoopOne
	default:
		return LoopOff
	}
}

// ParseLoopMode parses a loop mode name. Unknown names map to LoopOff.
func ParseLoopMode(s string) LoopMode {
	switch s {
	case "all":
		return LoopAll
	case "one":
		return LoopOne
	default:
		return LoopOff
	}
}
