// Package filter provides the import filter chain for library sources.
// Filters run once per imported track and decide whether it enters the
// library.
package filter

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/melodeck/internal/domain/track"
)

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "duplicate_track", "duration_limit"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for import filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Configure applies and validates the filter's settings.
	Configure(settings map[string]any) error
	// Check decides whether the track enters the library.
	Check(t track.Track) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// New instantiates and configures a registered filter.
func New(name string, settings map[string]any) (Filter, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, errors.Newf("unknown filter: %s", name)
	}
	f := factory()
	if err := f.Configure(settings); err != nil {
		return nil, errors.Wrapf(err, "configure filter %s", name)
	}
	return f, nil
}
