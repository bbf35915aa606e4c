package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEmptyFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestNewFilesSource(t *testing.T) {
	t.Run("requires a path", func(t *testing.T) {
		_, err := NewFilesSource("", map[string]any{})
		assert.Error(t, err)
	})

	t.Run("display name falls back to the directory name", func(t *testing.T) {
		s, err := NewFilesSource("", map[string]any{"path": "/music/incoming"})
		require.NoError(t, err)
		assert.Equal(t, "incoming", s.Name())
	})

	t.Run("explicit display name wins", func(t *testing.T) {
		s, err := NewFilesSource("My Files", map[string]any{"path": "/music"})
		require.NoError(t, err)
		assert.Equal(t, "My Files", s.Name())
	})
}

func TestFilesSource_Load(t *testing.T) {
	dir := t.TempDir()
	writeEmptyFile(t, filepath.Join(dir, "New Order - Blue Monday.mp3"))
	writeEmptyFile(t, filepath.Join(dir, "untagged.MP3"))
	writeEmptyFile(t, filepath.Join(dir, "notes.txt"))
	writeEmptyFile(t, filepath.Join(dir, "sub", "Miles Davis - So What.mp3"))

	t.Run("recursive scan", func(t *testing.T) {
		s, err := NewFilesSource("Files", map[string]any{"path": dir})
		require.NoError(t, err)

		playlists, err := s.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, playlists, 1)

		p := playlists[0]
		assert.Equal(t, "files:"+dir, p.ID)
		assert.Equal(t, "Files", p.Name)
		require.Len(t, p.Tracks, 3)

		byTitle := map[string][]string{}
		for _, tr := range p.Tracks {
			byTitle[tr.Title] = tr.Artists
			assert.NotEmpty(t, tr.ID)
			assert.NotEmpty(t, tr.Location)
			assert.True(t, tr.HasLocalAudio())
		}
		assert.Equal(t, []string{"New Order"}, byTitle["Blue Monday"])
		assert.Equal(t, []string{"Miles Davis"}, byTitle["So What"])
		// No separator: the whole base name is the title.
		_, ok := byTitle["untagged"]
		assert.True(t, ok)
		assert.Empty(t, byTitle["untagged"])
	})

	t.Run("non-recursive scan skips subdirectories", func(t *testing.T) {
		s, err := NewFilesSource("Files", map[string]any{"path": dir, "recursive": false})
		require.NoError(t, err)

		playlists, err := s.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, playlists, 1)
		assert.Len(t, playlists[0].Tracks, 2)
	})

	t.Run("missing directory fails", func(t *testing.T) {
		s, err := NewFilesSource("Files", map[string]any{"path": filepath.Join(dir, "absent")})
		require.NoError(t, err)

		_, err = s.Load(context.Background())
		assert.Error(t, err)
	})
}
