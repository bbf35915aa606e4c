//go:build linux && !cgo

package audio

import "time"

// Available indicates whether real audio output is supported in this build.
// Speaker output needs cgo for the native sound libraries.
const Available = false

// Output is unavailable without cgo; callers fall back to TimerBackend.
type Output = TimerBackend

// NewOutput always fails in this build.
func NewOutput(interval time.Duration) (*Output, error) {
	return nil, ErrUnavailable
}
