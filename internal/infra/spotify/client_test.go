package spotify

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "spotify URI",
			input:    "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "open.spotify.com URL",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "URL with query parameters",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "URL with trailing slash",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M/",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "bare ID",
			input:    "37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "whitespace trimmed",
			input:    "  37i9dQZF1DXcBWIGoYBM5M  ",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractPlaylistID(tt.input))
		})
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{ClientID: "id"})
	assert.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(nil))
	assert.False(t, isRetryable(errors.New("invalid id")))
	assert.True(t, isRetryable(errors.New("503 service unavailable")))
	assert.True(t, isRetryable(errors.New("API rate limit exceeded")))
}
