// Package spotify provides a client for importing Spotify playlists.
package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/melodeck/internal/domain/playlist"
	"github.com/osa030/melodeck/internal/domain/track"
)

// Client is a Spotify Web API client.
type Client struct {
	client     *spotify.Client
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistReadPrivate,
		),
	)

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	// HTTP client with automatic token refresh
	httpClient := auth.Client(ctx, token)
	client := spotify.New(httpClient)

	return &Client{
		client:     client,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// GetPlaylist retrieves a playlist with all of its tracks by ID, URL or URI.
func (c *Client) GetPlaylist(ctx context.Context, playlistURL string) (*playlist.Playlist, error) {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	var meta *spotify.FullPlaylist
	err := c.retry(func() error {
		p, err := c.client.GetPlaylist(ctx, spotify.ID(playlistID))
		if err != nil {
			return err
		}
		meta = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playlist")
	}

	tracks, err := c.getPlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	return &playlist.Playlist{
		ID:          string(meta.ID),
		Name:        meta.Name,
		Description: meta.Description,
		Tracks:      tracks,
	}, nil
}

// getPlaylistTracks pages through all items of a playlist.
func (c *Client) getPlaylistTracks(ctx context.Context, playlistID string) ([]track.Track, error) {
	var tracks []track.Track
	offset := 0
	limit := 100

	for {
		var page *spotify.PlaylistItemPage
		err := c.retry(func() error {
			p, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
				spotify.Limit(limit),
				spotify.Offset(offset),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get playlist items")
		}

		for _, item := range page.Items {
			// Episodes come back with an empty track
			if item.Track.Track != nil && item.Track.Track.ID != "" {
				tracks = append(tracks, convertTrack(item.Track.Track))
			}
		}

		if len(page.Items) < limit {
			break
		}
		offset += limit
	}

	return tracks, nil
}

// convertTrack converts a Spotify track to the domain entity.
func convertTrack(t *spotify.FullTrack) track.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var albumArt string
	if len(t.Album.Images) > 0 {
		albumArt = t.Album.Images[0].URL
	}

	return track.Track{
		ID:          string(t.ID),
		Title:       t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		AlbumArtURL: albumArt,
		Duration:    time.Duration(t.Duration) * time.Millisecond,
		SourceURL:   fmt.Sprintf("https://open.spotify.com/track/%s", t.ID),
	}
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	input = strings.TrimSpace(input)

	// URI format: spotify:playlist:PLAYLIST_ID
	if strings.HasPrefix(input, "spotify:playlist:") {
		return strings.TrimPrefix(input, "spotify:playlist:")
	}

	// URL format: https://open.spotify.com/playlist/PLAYLIST_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/playlist/") {
		parts := strings.Split(input, "/playlist/")
		if len(parts) >= 2 {
			id := strings.Split(parts[len(parts)-1], "?")[0]
			return strings.TrimRight(id, "/")
		}
	}

	// Assume it's already a playlist ID
	return input
}
