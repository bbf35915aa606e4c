package library

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/melodeck/internal/domain/playlist"
	"github.com/osa030/melodeck/internal/infra/config"
	"github.com/osa030/melodeck/internal/library/filter"
)

// Source produces playlists for the library. Implementations decode
// their own settings from the source's configuration entry.
type Source interface {
	// Name returns the source's display name.
	Name() string
	// Load fetches the source's playlists.
	Load(ctx context.Context) ([]playlist.Playlist, error)
}

// SpotifyClient defines the Spotify operations the spotify source needs.
type SpotifyClient interface {
	GetPlaylist(ctx context.Context, playlistURL string) (*playlist.Playlist, error)
}

// NewSourcesFromConfig creates library sources from configuration.
// spotify may be nil when no spotify source is configured.
func NewSourcesFromConfig(cfg *config.Config, spotify SpotifyClient) ([]Source, error) {
	var sources []Source

	for i, scfg := range cfg.Library.Sources {
		var source Source
		var err error
		zlog.Debug().Msgf("creating library source: index=%d type=%s", i+1, scfg.Type)

		switch scfg.Type {
		case "files":
			source, err = NewFilesSource(scfg.DisplayName, scfg.Settings)

		case "spotify":
			if spotify == nil {
				return nil, errors.Newf("spotify source configured but no spotify client (source index %d)", i)
			}
			source, err = NewSpotifySource(spotify, scfg.DisplayName, scfg.Settings)

		default:
			return nil, errors.Newf("unsupported source type: %s (source index %d)", scfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create source (index %d, type %s)", i, scfg.Type)
		}

		sources = append(sources, source)
		zlog.Info().Msgf("registered library source: index=%d type=%s name=%s", i+1, scfg.Type, source.Name())
	}

	return sources, nil
}

// NewFilterChainFromConfig builds the import filter chain from
// configuration.
func NewFilterChainFromConfig(cfg *config.Config) (*filter.Chain, error) {
	configs := make([]filter.FilterConfig, len(cfg.Library.Filters))
	for i, fc := range cfg.Library.Filters {
		configs[i] = filter.FilterConfig{Type: fc.Type, Settings: fc.Settings}
	}
	return filter.NewChainFromConfig(configs)
}

// LoadAll runs every source, passes its tracks through the import
// filter chain and registers the surviving playlists with the library.
// A failing source is logged and skipped so one unreachable source does
// not block startup.
func LoadAll(ctx context.Context, lib *Library, sources []Source, chain *filter.Chain) {
	if chain == nil {
		chain = filter.NewChain()
	}
	for _, src := range sources {
		playlists, err := src.Load(ctx)
		if err != nil {
			zlog.Warn().Msgf("library: source %s failed: %v", src.Name(), err)
			continue
		}
		for _, p := range playlists {
			kept := p.Tracks[:0:0]
			for _, t := range p.Tracks {
				if result := chain.Check(t); !result.Accepted {
					zlog.Debug().Msgf("library: filtered out %q (%s)", t.Title, result.Code)
					continue
				}
				kept = append(kept, t)
			}
			p.Tracks = kept
			lib.AddPlaylist(p)
			zlog.Info().Msgf("library: loaded playlist %q with %d tracks from %s", p.Name, len(p.Tracks), src.Name())
		}
	}
}
