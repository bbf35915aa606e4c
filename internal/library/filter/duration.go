package filter

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/melodeck/internal/domain/track"
)

// DurationConfig represents the configuration for DurationFilter.
type DurationConfig struct {
	MinMinutes float64 `mapstructure:"min_minutes" validate:"gte=0"`
	MaxMinutes float64 `mapstructure:"max_minutes" validate:"gte=0"` // 0 means no limit
}

// DurationFilter skips tracks outside the allowed duration range, such
// as interludes or full DJ mixes. Tracks with unknown duration pass;
// local files only learn theirs at decode time.
type DurationFilter struct {
	config *DurationConfig
}

// NewDurationFilter creates a new duration filter.
func NewDurationFilter() *DurationFilter {
	return &DurationFilter{}
}

// Name returns the filter name.
func (f *DurationFilter) Name() string {
	return "duration"
}

// Configure applies and validates the filter settings.
func (f *DurationFilter) Configure(settings map[string]any) error {
	var config DurationConfig
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	if config.MaxMinutes > 0 && config.MinMinutes > config.MaxMinutes {
		return errors.New("min_minutes cannot be greater than max_minutes")
	}

	f.config = &config
	zlog.Debug().Msgf("duration filter config: %+v", config)
	return nil
}

// Check rejects tracks outside the configured range.
func (f *DurationFilter) Check(t track.Track) Result {
	if f.config == nil || t.Duration <= 0 {
		return Accept()
	}

	minutes := t.Duration.Minutes()
	if minutes < f.config.MinMinutes {
		return Reject("duration_limit")
	}
	if f.config.MaxMinutes > 0 && minutes > f.config.MaxMinutes {
		return Reject("duration_limit")
	}
	return Accept()
}

func init() {
	Register("duration", func() Filter {
		return NewDurationFilter()
	})
}
