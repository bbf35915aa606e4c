package library

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/melodeck/internal/domain/playlist"
	"github.com/osa030/melodeck/internal/domain/track"
)

// FilesSourceConfig holds the files source settings.
type FilesSourceConfig struct {
	Path      string `mapstructure:"path" validate:"required"`
	Recursive bool   `mapstructure:"recursive" default:"true"`
}

// FilesSource scans a directory for MP3 files. Durations are left
// unknown; the audio backend reports them once a track is decoded.
type FilesSource struct {
	displayName string
	config      *FilesSourceConfig
}

// NewFilesSource creates a files source from its settings map.
func NewFilesSource(displayName string, settings map[string]any) (*FilesSource, error) {
	// Defaults first; decoding then only overrides the keys present in
	// the settings map, so an explicit "recursive: false" survives.
	var cfg FilesSourceConfig
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	if displayName == "" {
		displayName = filepath.Base(cfg.Path)
	}
	return &FilesSource{displayName: displayName, config: &cfg}, nil
}

// Name returns the source's display name.
func (s *FilesSource) Name() string {
	return s.displayName
}

// Load walks the configured directory and builds one playlist from the
// MP3 files found.
func (s *FilesSource) Load(ctx context.Context) ([]playlist.Playlist, error) {
	var tracks []track.Track

	err := filepath.WalkDir(s.config.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if !s.config.Recursive && path != s.config.Path {
				return fs.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".mp3") {
			tracks = append(tracks, trackFromFile(path))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", s.config.Path)
	}

	return []playlist.Playlist{{
		ID:     "files:" + s.config.Path,
		Name:   s.displayName,
		Source: s.displayName,
		Tracks: tracks,
	}}, nil
}

// trackFromFile derives track metadata from a file name. Names of the
// form "Artist - Title.mp3" are split; anything else becomes the title.
func trackFromFile(path string) track.Track {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	t := track.Track{
		ID:       uuid.NewString(),
		Title:    base,
		Location: path,
	}
	if artist, title, found := strings.Cut(base, " - "); found {
		t.Artists = []string{strings.TrimSpace(artist)}
		t.Title = strings.TrimSpace(title)
	}
	return t
}
