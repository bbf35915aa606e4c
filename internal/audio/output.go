//go:build (linux && cgo) || windows || darwin

package audio

import (
	"context"
	"math"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/melodeck/internal/domain/track"
)

// Available indicates whether real audio output is supported in this build.
const Available = true

const outputSampleRate = beep.SampleRate(44100)

// Output plays local MP3 files through the system speaker using beep.
type Output struct {
	mu sync.Mutex

	initialized bool
	session     uint64
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	percent     int

	interval time.Duration
	events   chan Event
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewOutput creates a speaker-backed audio output emitting progress
// events at the given interval.
func NewOutput(interval time.Duration) (*Output, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	o := &Output{
		percent:  100,
		interval: interval,
		events:   make(chan Event, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
	go o.run()
	return o, nil
}

// Load decodes the track's local MP3 file and prepares it for playback.
func (o *Output) Load(session uint64, t track.Track) error {
	if !t.HasLocalAudio() {
		return errors.Wrapf(ErrNoAudioData, "track %s", t.ID)
	}

	f, err := os.Open(t.Location)
	if err != nil {
		return errors.Wrapf(err, "open %s", t.Location)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "decode %s", t.Location)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopLocked()

	if !o.initialized {
		if err := speaker.Init(outputSampleRate, outputSampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return errors.Wrap(err, "init speaker")
		}
		o.initialized = true
	}

	o.session = session
	o.streamer = streamer
	o.format = format

	resampled := beep.Resample(4, format.SampleRate, outputSampleRate, streamer)
	o.ctrl = &beep.Ctrl{Streamer: resampled, Paused: true}
	o.volume = &effects.Volume{Streamer: o.ctrl, Base: 2}
	o.applyVolumeLocked()

	speaker.Play(beep.Seq(o.volume, beep.Callback(func() {
		// Runs on the speaker goroutine once the streamer drains.
		o.send(Event{Type: EventEnded, Session: session})
	})))

	zlog.Debug().Msgf("audio: loaded %s session=%d rate=%d", t.Location, session, format.SampleRate)
	return nil
}

// Play resumes output.
func (o *Output) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctrl == nil {
		return nil
	}
	speaker.Lock()
	o.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause suspends output, keeping the position.
func (o *Output) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctrl == nil {
		return nil
	}
	speaker.Lock()
	o.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Stop halts output and releases the current streamer.
func (o *Output) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopLocked()
	return nil
}

func (o *Output) stopLocked() {
	if o.ctrl != nil {
		speaker.Lock()
		o.ctrl.Paused = true
		speaker.Unlock()
	}
	if o.streamer != nil {
		o.streamer.Close()
		o.streamer = nil
	}
	o.ctrl = nil
	o.volume = nil
}

// Seek moves the playback position.
func (o *Output) Seek(pos time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.streamer == nil {
		return nil
	}

	speaker.Lock()
	defer speaker.Unlock()

	samples := o.format.SampleRate.N(pos)
	if total := o.streamer.Len(); samples > total {
		samples = total
	}
	if samples < 0 {
		samples = 0
	}
	return o.streamer.Seek(samples)
}

// SetVolume sets the output volume as a percentage, 0-100.
func (o *Output) SetVolume(percent int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	o.percent = percent
	o.applyVolumeLocked()
	return nil
}

// applyVolumeLocked maps the stored percentage onto beep's logarithmic
// volume scale. Zero percent mutes the streamer outright.
func (o *Output) applyVolumeLocked() {
	if o.volume == nil {
		return
	}
	speaker.Lock()
	if o.percent <= 0 {
		o.volume.Silent = true
	} else {
		o.volume.Silent = false
		o.volume.Volume = math.Log2(float64(o.percent) / 100)
	}
	speaker.Unlock()
}

// Events returns the backend's event stream.
func (o *Output) Events() <-chan Event {
	return o.events
}

// Close stops playback and the progress loop.
func (o *Output) Close() error {
	o.cancel()
	return o.Stop()
}

// run emits periodic progress reports from the streamer position.
func (o *Output) run() {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			o.reportProgress()
		}
	}
}

func (o *Output) reportProgress() {
	o.mu.Lock()

	if o.streamer == nil {
		o.mu.Unlock()
		return
	}

	session := o.session
	speaker.Lock()
	paused := o.ctrl.Paused
	pos := o.format.SampleRate.D(o.streamer.Position())
	total := o.format.SampleRate.D(o.streamer.Len())
	speaker.Unlock()
	o.mu.Unlock()

	if paused {
		return
	}
	o.send(Event{Type: EventProgress, Session: session, Position: pos, Duration: total})
}

// send delivers an event without blocking the speaker goroutine.
func (o *Output) send(e Event) {
	select {
	case o.events <- e:
	case <-o.ctx.Done():
	default:
	}
}
