// Package playlist provides the Playlist domain entity.
package playlist

import (
	"time"

	"github.com/osa030/melodeck/internal/domain/track"
)

// Playlist represents a named, ordered list of tracks.
// Library sources produce playlists; the queue engine consumes their
// track lists via SetItems.
type Playlist struct {
	ID          string        // Playlist ID
	Name        string        // Playlist name
	Description string        // Playlist description
	Source      string        // Display name of the source that produced it
	Tracks      []track.Track // Tracks in order
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration returns the total duration of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}

// IndexOf returns the position of the track with the given ID, or -1.
func (p *Playlist) IndexOf(trackID string) int {
	for i, t := range p.Tracks {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}
