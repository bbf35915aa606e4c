package filter

import (
	"regexp"
	"strings"

	"github.com/osa030/melodeck/internal/domain/track"
)

// DuplicateFilter rejects tracks the library already accepted during
// this import. Detects:
// - Exact track ID matches
// - Remasters (normalized title + same main artist)
// Excludes:
// - Cover songs (same title but different artist)
type DuplicateFilter struct {
	seenIDs  map[string]struct{}
	accepted []track.Track
}

// NewDuplicateFilter creates a new duplicate filter.
func NewDuplicateFilter() *DuplicateFilter {
	return &DuplicateFilter{
		seenIDs: make(map[string]struct{}),
	}
}

// Name returns the filter name.
func (f *DuplicateFilter) Name() string {
	return "duplicate"
}

// Configure validates the filter configuration.
func (f *DuplicateFilter) Configure(settings map[string]any) error {
	// No configuration needed
	return nil
}

// Check rejects the track when a matching one was already accepted.
func (f *DuplicateFilter) Check(t track.Track) Result {
	if _, seen := f.seenIDs[t.ID]; seen {
		return Reject("duplicate_track")
	}
	for _, prev := range f.accepted {
		if isRemaster(prev, t) {
			return Reject("duplicate_track")
		}
	}

	f.seenIDs[t.ID] = struct{}{}
	f.accepted = append(f.accepted, t)
	return Accept()
}

// isRemaster checks if two tracks are the same song in another edition:
// the normalized titles match and the main artist is the same. Matching
// titles with different artists are covers and pass.
func isRemaster(a, b track.Track) bool {
	if normalizeTitle(a.Title) != normalizeTitle(b.Title) {
		return false
	}
	return isSameArtist(a, b)
}

// Common remaster and version suffixes stripped before comparison.
var (
	remasterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),
	}
	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?version\)`),        // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),           // "(Radio Edit)"
		regexp.MustCompile(`\s*-?\s*live$`),            // "- Live"
		regexp.MustCompile(`\s*\(live\)`),              // "(Live)"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),     // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`), // "- Single Version"
	}
	spaceRun = regexp.MustCompile(`\s+`)
)

// normalizeTitle removes remaster information and version details.
func normalizeTitle(title string) string {
	normalized := strings.ToLower(title)

	for _, pattern := range remasterPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = spaceRun.ReplaceAllString(strings.TrimSpace(normalized), " ")
	return strings.TrimRight(normalized, " -")
}

// isSameArtist checks if two tracks have the same main artist.
func isSameArtist(a, b track.Track) bool {
	if len(a.Artists) == 0 || len(b.Artists) == 0 {
		return false
	}
	return strings.EqualFold(a.Artists[0], b.Artists[0])
}

func init() {
	Register("duplicate", func() Filter {
		return NewDuplicateFilter()
	})
}
