// Package library provides the in-memory track repository and its sources.
package library

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/osa030/melodeck/internal/domain/playlist"
	"github.com/osa030/melodeck/internal/domain/track"
)

// Errors
var (
	ErrTrackNotFound = errors.New("track not found")
)

// Library is the track repository the player reads from. It owns the
// Favorite flag; the queue engine only forwards toggle requests here.
type Library struct {
	mu        sync.RWMutex
	tracks    map[string]track.Track
	order     []string // Insertion order for stable listing
	playlists []playlist.Playlist
}

// New creates an empty library.
func New() *Library {
	return &Library{
		tracks: make(map[string]track.Track),
	}
}

// AddPlaylist registers a playlist and all of its tracks.
func (l *Library) AddPlaylist(p playlist.Playlist) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.playlists = append(l.playlists, p)
	for _, t := range p.Tracks {
		if _, exists := l.tracks[t.ID]; !exists {
			l.order = append(l.order, t.ID)
		}
		l.tracks[t.ID] = t
	}
}

// AddTracks registers standalone tracks.
func (l *Library) AddTracks(tracks []track.Track) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, t := range tracks {
		if _, exists := l.tracks[t.ID]; !exists {
			l.order = append(l.order, t.ID)
		}
		l.tracks[t.ID] = t
	}
}

// Get returns the track with the given ID.
func (l *Library) Get(id string) (track.Track, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tracks[id]
	if !ok {
		return track.Track{}, errors.Wrapf(ErrTrackNotFound, "id %s", id)
	}
	return t, nil
}

// GetMany resolves a list of track IDs, skipping unknown ones.
func (l *Library) GetMany(ids []string) []track.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tracks := make([]track.Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := l.tracks[id]; ok {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

// All returns every track in insertion order.
func (l *Library) All() []track.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return lo.Map(l.order, func(id string, _ int) track.Track {
		return l.tracks[id]
	})
}

// Len returns the number of tracks.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}

// Playlists returns the registered playlists.
func (l *Library) Playlists() []playlist.Playlist {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]playlist.Playlist, len(l.playlists))
	copy(result, l.playlists)
	return result
}

// Playlist returns the playlist with the given ID.
func (l *Library) Playlist(id string) (playlist.Playlist, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, p := range l.playlists {
		if p.ID == id {
			return p, true
		}
	}
	return playlist.Playlist{}, false
}

// Search returns tracks whose title, artist or album contains the query,
// case-insensitively. An empty query returns everything.
func (l *Library) Search(query string) []track.Track {
	all := l.All()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all
	}

	return lo.Filter(all, func(t track.Track, _ int) bool {
		if strings.Contains(strings.ToLower(t.Title), query) {
			return true
		}
		if strings.Contains(strings.ToLower(t.Album), query) {
			return true
		}
		for _, a := range t.Artists {
			if strings.Contains(strings.ToLower(a), query) {
				return true
			}
		}
		return false
	})
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (l *Library) ToggleFavorite(id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tracks[id]
	if !ok {
		return false, errors.Wrapf(ErrTrackNotFound, "id %s", id)
	}
	t.Favorite = !t.Favorite
	l.tracks[id] = t

	// Playlists hold copies; keep them in step.
	for pi := range l.playlists {
		for ti := range l.playlists[pi].Tracks {
			if l.playlists[pi].Tracks[ti].ID == id {
				l.playlists[pi].Tracks[ti].Favorite = t.Favorite
			}
		}
	}
	return t.Favorite, nil
}

// Favorites returns every favorited track in insertion order.
func (l *Library) Favorites() []track.Track {
	return lo.Filter(l.All(), func(t track.Track, _ int) bool {
		return t.Favorite
	})
}
