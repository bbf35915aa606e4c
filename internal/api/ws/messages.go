// Package ws exposes playback state and commands to a local UI over websocket.
package ws

import (
	"time"

	"github.com/osa030/melodeck/internal/app/playback"
	"github.com/osa030/melodeck/internal/domain/track"
)

// Command is an inbound UI message. Action selects the operation; the
// remaining fields are its parameters. A cancelled drag gesture sends
// nothing at all; only a completed drop arrives as a "reorder".
type Command struct {
	Action     string   `json:"action"`
	TrackID    string   `json:"track_id,omitempty"`
	TrackIDs   []string `json:"track_ids,omitempty"`
	StartIndex int      `json:"start_index,omitempty"`
	Index      int      `json:"index,omitempty"`
	From       int      `json:"from,omitempty"`
	To         int      `json:"to,omitempty"`
	Fraction   float64  `json:"fraction,omitempty"`
	Volume     int      `json:"volume,omitempty"`
	Query      string   `json:"query,omitempty"`
}

// Message is an outbound frame.
type Message struct {
	Type   string         `json:"type"` // "state", "tracks", "error"
	State  *StatePayload  `json:"state,omitempty"`
	Tracks []TrackPayload `json:"tracks,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// StatePayload is the client-facing playback state.
type StatePayload struct {
	State       string        `json:"state"`
	IsPlaying   bool          `json:"is_playing"`
	Track       *TrackPayload `json:"track"`
	QueueIndex  int           `json:"queue_index"`
	QueueLength int           `json:"queue_length"`
	PositionMs  int64         `json:"position_ms"`
	DurationMs  int64         `json:"duration_ms"`
	Volume      int           `json:"volume"`
	Muted       bool          `json:"muted"`
	Shuffle     bool          `json:"shuffle"`
	Loop        string        `json:"loop"`
}

// TrackPayload is the client-facing track record.
type TrackPayload struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	ArtURL     string   `json:"art_url,omitempty"`
	DurationMs int64    `json:"duration_ms"`
	Favorite   bool     `json:"favorite"`
}

func newStateMessage(s playback.Snapshot) Message {
	payload := StatePayload{
		State:       s.State.String(),
		IsPlaying:   s.IsPlaying,
		QueueIndex:  s.QueueIndex,
		QueueLength: s.QueueLength,
		PositionMs:  s.Position.Milliseconds(),
		DurationMs:  s.Duration.Milliseconds(),
		Volume:      s.Volume,
		Muted:       s.Muted,
		Shuffle:     s.Shuffle,
		Loop:        s.Loop.String(),
	}
	if s.Track != nil {
		tp := newTrackPayload(*s.Track)
		payload.Track = &tp
	}
	return Message{Type: "state", State: &payload}
}

func newTracksMessage(tracks []track.Track) Message {
	payloads := make([]TrackPayload, len(tracks))
	for i, t := range tracks {
		payloads[i] = newTrackPayload(t)
	}
	return Message{Type: "tracks", Tracks: payloads}
}

func newErrorMessage(err error) Message {
	return Message{Type: "error", Error: err.Error()}
}

func newTrackPayload(t track.Track) TrackPayload {
	return TrackPayload{
		ID:         t.ID,
		Title:      t.Title,
		Artists:    t.Artists,
		Album:      t.Album,
		ArtURL:     t.AlbumArtURL,
		DurationMs: int64(t.Duration / time.Millisecond),
		Favorite:   t.Favorite,
	}
}
