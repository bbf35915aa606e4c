// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"strings"
	"time"
)

// Track represents a single playable track.
// The queue engine treats tracks as immutable; only the Favorite flag
// changes, and that change is owned by the library.
type Track struct {
	ID          string        // Unique track ID
	Title       string        // Track title
	Artists     []string      // Artist names
	Album       string        // Album name
	AlbumArtURL string        // Album art URL (optional)
	Duration    time.Duration // Track duration (zero if not yet known)
	Favorite    bool          // Favorite flag
	Location    string        // Local file path for playable tracks (empty otherwise)
	SourceURL   string        // External source URL (optional)
}

// DisplayArtist returns the artist names joined for display.
func (t *Track) DisplayArtist() string {
	if len(t.Artists) == 0 {
		return "Unknown Artist"
	}
	return strings.Join(t.Artists, ", ")
}

// DurationString formats the duration as m:ss (or h:mm:ss for long tracks).
// Unknown durations render as "-:--".
func (t *Track) DurationString() string {
	if t.Duration <= 0 {
		return "-:--"
	}
	total := int(t.Duration.Round(time.Second).Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// HasLocalAudio reports whether the track can be decoded from local storage.
func (t *Track) HasLocalAudio() bool {
	return t.Location != ""
}
