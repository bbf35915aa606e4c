package library

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/melodeck/internal/domain/playlist"
)

// SpotifySourceConfig holds the spotify source settings.
type SpotifySourceConfig struct {
	PlaylistURLs []string `mapstructure:"playlist_urls" validate:"required,min=1"`
}

// SpotifySource imports playlists from the Spotify Web API. Imported
// tracks carry no local audio data, so they play through the timer
// backend.
type SpotifySource struct {
	spotify     SpotifyClient
	displayName string
	config      *SpotifySourceConfig
}

// NewSpotifySource creates a spotify source from its settings map.
func NewSpotifySource(spotify SpotifyClient, displayName string, settings map[string]any) (*SpotifySource, error) {
	var cfg SpotifySourceConfig
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	if displayName == "" {
		displayName = "Spotify"
	}
	return &SpotifySource{spotify: spotify, displayName: displayName, config: &cfg}, nil
}

// Name returns the source's display name.
func (s *SpotifySource) Name() string {
	return s.displayName
}

// Load fetches every configured playlist.
func (s *SpotifySource) Load(ctx context.Context) ([]playlist.Playlist, error) {
	playlists := make([]playlist.Playlist, 0, len(s.config.PlaylistURLs))
	for _, url := range s.config.PlaylistURLs {
		p, err := s.spotify.GetPlaylist(ctx, url)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch playlist %s", url)
		}
		p.Source = s.displayName
		playlists = append(playlists, *p)
	}
	return playlists, nil
}
