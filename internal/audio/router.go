package audio

import (
	"context"
	"sync"
	"time"

	"github.com/osa030/melodeck/internal/domain/track"
)

// Router delegates each loaded track to the backend that can play it:
// tracks with local audio data go to the speaker output, anything else
// to the timer simulation. Both event streams merge into one.
type Router struct {
	mu     sync.Mutex
	local  Backend
	timer  Backend
	active Backend

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRouter creates a router over a speaker backend and a timer backend.
func NewRouter(local, timer Backend) *Router {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		local:  local,
		timer:  timer,
		active: timer,
		events: make(chan Event, 16),
		ctx:    ctx,
		cancel: cancel,
	}
	go r.forward(local.Events())
	go r.forward(timer.Events())
	return r
}

// Load picks the backend for the track and prepares it there. The other
// backend is stopped so only one clock runs.
func (r *Router) Load(session uint64, t track.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.timer
	if t.HasLocalAudio() {
		next = r.local
	}
	if next != r.active {
		_ = r.active.Stop()
		r.active = next
	}
	return r.active.Load(session, t)
}

// Play resumes the active backend.
func (r *Router) Play() error {
	return r.activeBackend().Play()
}

// Pause suspends the active backend.
func (r *Router) Pause() error {
	return r.activeBackend().Pause()
}

// Stop halts the active backend.
func (r *Router) Stop() error {
	return r.activeBackend().Stop()
}

// Seek moves the position on the active backend.
func (r *Router) Seek(pos time.Duration) error {
	return r.activeBackend().Seek(pos)
}

// SetVolume applies the volume to both backends so a later switch does
// not revert it.
func (r *Router) SetVolume(percent int) error {
	if err := r.local.SetVolume(percent); err != nil {
		return err
	}
	return r.timer.SetVolume(percent)
}

// Events returns the merged event stream.
func (r *Router) Events() <-chan Event {
	return r.events
}

// Close shuts down both backends and the merge loops.
func (r *Router) Close() error {
	r.cancel()
	err := r.local.Close()
	if terr := r.timer.Close(); err == nil {
		err = terr
	}
	return err
}

func (r *Router) activeBackend() Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Router) forward(in <-chan Event) {
	for {
		select {
		case <-r.ctx.Done():
			return
		case e, ok := <-in:
			if !ok {
				return
			}
			select {
			case r.events <- e:
			case <-r.ctx.Done():
			default:
			}
		}
	}
}
