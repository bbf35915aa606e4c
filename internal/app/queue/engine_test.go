package queue

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/melodeck/internal/domain/track"
)

func makeTracks(n int) []track.Track {
	tracks := make([]track.Track, n)
	for i := range tracks {
		tracks[i] = track.Track{
			ID:       fmt.Sprintf("track-%d", i+1),
			Title:    fmt.Sprintf("Song %d", i+1),
			Duration: 3 * time.Minute,
		}
	}
	return tracks
}

func trackIDs(tracks []track.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

func newTestEngine() *Engine {
	return New(Config{Rand: rand.New(rand.NewSource(42))})
}

func TestEngine_SetItems(t *testing.T) {
	tests := []struct {
		name          string
		tracks        []track.Track
		startIndex    int
		wantSignal    Signal
		wantIndex     int
		wantCurrentID string
	}{
		{
			name:          "start at clicked track",
			tracks:        makeTracks(5),
			startIndex:    2,
			wantSignal:    SignalPlay,
			wantIndex:     2,
			wantCurrentID: "track-3",
		},
		{
			name:          "negative start index falls back to 0",
			tracks:        makeTracks(3),
			startIndex:    -1,
			wantSignal:    SignalPlay,
			wantIndex:     0,
			wantCurrentID: "track-1",
		},
		{
			name:          "start index past end falls back to 0",
			tracks:        makeTracks(3),
			startIndex:    7,
			wantSignal:    SignalPlay,
			wantIndex:     0,
			wantCurrentID: "track-1",
		},
		{
			name:       "empty list behaves like clear",
			tracks:     nil,
			startIndex: 0,
			wantSignal: SignalClear,
			wantIndex:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			sig := e.SetItems(tt.tracks, tt.startIndex)

			assert.Equal(t, tt.wantSignal, sig)
			assert.Equal(t, tt.wantIndex, e.CurrentIndex())
			assert.Equal(t, len(tt.tracks), e.Len())

			current, ok := e.CurrentTrack()
			if tt.wantCurrentID == "" {
				assert.False(t, ok)
			} else {
				require.True(t, ok)
				assert.Equal(t, tt.wantCurrentID, current.ID)
			}
		})
	}
}

func TestEngine_SetItems_ResetsHistory(t *testing.T) {
	e := newTestEngine()
	e.SetItems(makeTracks(5), 0)
	e.Next()
	e.Next()
	require.NotEmpty(t, e.History())

	e.SetItems(makeTracks(3), 1)
	assert.Empty(t, e.History())
}

func TestEngine_Enqueue(t *testing.T) {
	t.Run("first track becomes current and starts playback", func(t *testing.T) {
		e := newTestEngine()
		sig := e.Enqueue(track.Track{ID: "track-1"})

		assert.Equal(t, SignalPlay, sig)
		assert.Equal(t, 0, e.CurrentIndex())
		assert.Equal(t, 1, e.Len())
	})

	t.Run("append does not disturb current position", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(3), 1)

		sig := e.Enqueue(track.Track{ID: "track-9"})
		assert.Equal(t, SignalNone, sig)
		assert.Equal(t, 1, e.CurrentIndex())
		assert.Equal(t, 4, e.Len())
	})

	t.Run("rapid repeated enqueue of the same track adds one entry", func(t *testing.T) {
		e := newTestEngine()
		tr := track.Track{ID: "track-1"}

		e.Enqueue(tr)
		e.Enqueue(tr)
		e.Enqueue(tr)

		assert.Equal(t, 1, e.Len())
	})

	t.Run("different tracks are not deduplicated", func(t *testing.T) {
		e := newTestEngine()
		e.Enqueue(track.Track{ID: "track-1"})
		e.Enqueue(track.Track{ID: "track-2"})
		e.Enqueue(track.Track{ID: "track-1"})

		assert.Equal(t, 3, e.Len())
	})

	t.Run("same track allowed again after the dedup window", func(t *testing.T) {
		e := New(Config{DedupWindow: time.Millisecond, Rand: rand.New(rand.NewSource(1))})
		tr := track.Track{ID: "track-1"}

		e.Enqueue(tr)
		time.Sleep(5 * time.Millisecond)
		e.Enqueue(tr)

		assert.Equal(t, 2, e.Len())
	})
}

func TestEngine_EnqueueMany(t *testing.T) {
	e := newTestEngine()
	sig := e.EnqueueMany(makeTracks(3))

	assert.Equal(t, SignalPlay, sig)
	assert.Equal(t, 0, e.CurrentIndex())
	assert.Equal(t, 3, e.Len())

	sig = e.EnqueueMany(makeTracks(2)[0:0])
	assert.Equal(t, SignalNone, sig)
}

func TestEngine_RemoveAt(t *testing.T) {
	tests := []struct {
		name          string
		startIndex    int
		removeIndex   int
		wantSignal    Signal
		wantIndex     int
		wantCurrentID string
	}{
		{
			name:          "remove before current keeps same logical track",
			startIndex:    2,
			removeIndex:   0,
			wantSignal:    SignalNone,
			wantIndex:     1,
			wantCurrentID: "track-3",
		},
		{
			name:          "remove after current leaves index untouched",
			startIndex:    1,
			removeIndex:   3,
			wantSignal:    SignalNone,
			wantIndex:     1,
			wantCurrentID: "track-2",
		},
		{
			name:          "remove current selects shifted-in track and stops",
			startIndex:    1,
			removeIndex:   1,
			wantSignal:    SignalStop,
			wantIndex:     1,
			wantCurrentID: "track-3",
		},
		{
			name:          "remove current at end clamps to new last",
			startIndex:    4,
			removeIndex:   4,
			wantSignal:    SignalStop,
			wantIndex:     3,
			wantCurrentID: "track-4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			e.SetItems(makeTracks(5), tt.startIndex)

			sig, err := e.RemoveAt(tt.removeIndex)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSignal, sig)
			assert.Equal(t, 4, e.Len())
			assert.Equal(t, tt.wantIndex, e.CurrentIndex())

			current, ok := e.CurrentTrack()
			require.True(t, ok)
			assert.Equal(t, tt.wantCurrentID, current.ID)
		})
	}

	t.Run("removing the only track empties the queue", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(1), 0)

		sig, err := e.RemoveAt(0)
		require.NoError(t, err)

		assert.Equal(t, SignalClear, sig)
		assert.Equal(t, 0, e.Len())
		assert.Equal(t, -1, e.CurrentIndex())
		_, ok := e.CurrentTrack()
		assert.False(t, ok)
	})

	t.Run("out of range is rejected without mutation", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(3), 0)

		for _, idx := range []int{-1, 3, 99} {
			_, err := e.RemoveAt(idx)
			assert.ErrorIs(t, err, ErrOutOfRange)
			assert.Equal(t, 3, e.Len())
		}
	})
}

func TestEngine_Clear(t *testing.T) {
	e := newTestEngine()
	e.SetItems(makeTracks(4), 2)
	e.Next()

	sig := e.Clear()

	assert.Equal(t, SignalClear, sig)
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, -1, e.CurrentIndex())
	assert.Empty(t, e.History())
	_, ok := e.CurrentTrack()
	assert.False(t, ok)
}

func TestEngine_Reorder(t *testing.T) {
	t.Run("is a pure permutation", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(5), 0)

		require.NoError(t, e.Reorder(1, 3))

		items := e.Items()
		assert.Len(t, items, 5)
		assert.ElementsMatch(t,
			[]string{"track-1", "track-2", "track-3", "track-4", "track-5"},
			trackIDs(items))
		assert.Equal(t, []string{"track-1", "track-3", "track-4", "track-2", "track-5"}, trackIDs(items))
	})

	t.Run("current index follows the track, not the slot", func(t *testing.T) {
		tests := []struct {
			name       string
			startIndex int
			from, to   int
			wantIndex  int
		}{
			{"moving earlier track past current shifts current down", 2, 0, 4, 1},
			{"moving later track before current shifts current up", 2, 4, 0, 3},
			{"moving the current track itself", 1, 1, 3, 3},
			{"move entirely after current", 0, 2, 4, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				e := newTestEngine()
				e.SetItems(makeTracks(5), tt.startIndex)
				before, ok := e.CurrentTrack()
				require.True(t, ok)

				require.NoError(t, e.Reorder(tt.from, tt.to))

				assert.Equal(t, tt.wantIndex, e.CurrentIndex())
				after, ok := e.CurrentTrack()
				require.True(t, ok)
				assert.Equal(t, before.ID, after.ID)
			})
		}
	})

	t.Run("same from and to is a no-op", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(3), 1)
		before := trackIDs(e.Items())

		require.NoError(t, e.Reorder(2, 2))

		assert.Equal(t, before, trackIDs(e.Items()))
		assert.Equal(t, 1, e.CurrentIndex())
	})

	t.Run("out of range is rejected without mutation", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(3), 0)
		before := trackIDs(e.Items())

		assert.ErrorIs(t, e.Reorder(-1, 2), ErrOutOfRange)
		assert.ErrorIs(t, e.Reorder(0, 3), ErrOutOfRange)
		assert.Equal(t, before, trackIDs(e.Items()))
	})

	t.Run("move is an alias", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(3), 0)

		require.NoError(t, e.Move(0, 2))
		assert.Equal(t, []string{"track-2", "track-3", "track-1"}, trackIDs(e.Items()))
	})
}

func TestEngine_ToggleShuffle(t *testing.T) {
	t.Run("round trip restores the exact pre-shuffle order", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(10), 4)
		before := trackIDs(e.Items())
		currentBefore, _ := e.CurrentTrack()

		assert.True(t, e.ToggleShuffle())
		assert.False(t, e.ToggleShuffle())

		assert.Equal(t, before, trackIDs(e.Items()))
		currentAfter, ok := e.CurrentTrack()
		require.True(t, ok)
		assert.Equal(t, currentBefore.ID, currentAfter.ID)
		assert.Equal(t, 4, e.CurrentIndex())
	})

	t.Run("shuffle keeps the playing track in place", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(10), 3)

		e.ToggleShuffle()

		assert.Equal(t, 3, e.CurrentIndex())
		current, ok := e.CurrentTrack()
		require.True(t, ok)
		assert.Equal(t, "track-4", current.ID)
	})

	t.Run("shuffle is a permutation", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(10), 0)
		before := trackIDs(e.Items())

		e.ToggleShuffle()

		assert.ElementsMatch(t, before, trackIDs(e.Items()))
	})

	t.Run("enqueue during shuffle survives restore", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(5), 0)
		e.ToggleShuffle()

		e.Enqueue(track.Track{ID: "track-9"})
		e.ToggleShuffle()

		assert.Equal(t, 6, e.Len())
		assert.Contains(t, trackIDs(e.Items()), "track-9")
	})

	t.Run("removal during shuffle drops the track from the restored order", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(5), 0)
		e.ToggleShuffle()

		items := e.Items()
		// Remove some non-current entry.
		removeIdx := 1
		removedID := items[removeIdx].ID
		_, err := e.RemoveAt(removeIdx)
		require.NoError(t, err)

		e.ToggleShuffle()
		assert.Equal(t, 4, e.Len())
		assert.NotContains(t, trackIDs(e.Items()), removedID)
	})
}

func TestLoopMode_Cycle(t *testing.T) {
	e := newTestEngine()
	assert.Equal(t, LoopOff, e.Loop())

	assert.Equal(t, LoopAll, e.CycleLoop())
	assert.Equal(t, LoopOne, e.CycleLoop())
	assert.Equal(t, LoopOff, e.CycleLoop())
}

func TestParseLoopMode(t *testing.T) {
	assert.Equal(t, LoopOff, ParseLoopMode("off"))
	assert.Equal(t, LoopAll, ParseLoopMode("all"))
	assert.Equal(t, LoopOne, ParseLoopMode("one"))
	assert.Equal(t, LoopOff, ParseLoopMode("bogus"))
}

func TestEngine_Next(t *testing.T) {
	t.Run("advances and records history", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(3), 0)

		sig := e.Next()

		assert.Equal(t, SignalPlay, sig)
		assert.Equal(t, 1, e.CurrentIndex())
		assert.Equal(t, []int{0}, e.History())
	})

	t.Run("at end with loop off stops without leaving range", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(10), 9)

		sig := e.Next()

		assert.Equal(t, SignalStop, sig)
		assert.Equal(t, 9, e.CurrentIndex())
	})

	t.Run("at end with loop all wraps to the start", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(10), 9)
		e.SetLoop(LoopAll)

		sig := e.Next()

		assert.Equal(t, SignalPlay, sig)
		assert.Equal(t, 0, e.CurrentIndex())
		current, ok := e.CurrentTrack()
		require.True(t, ok)
		assert.Equal(t, "track-1", current.ID)
		assert.Equal(t, []int{9}, e.History())
	})

	t.Run("loop one replays without advancing", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(3), 1)
		e.SetLoop(LoopOne)

		sig := e.Next()

		assert.Equal(t, SignalReplay, sig)
		assert.Equal(t, 1, e.CurrentIndex())
		assert.Empty(t, e.History())
	})

	t.Run("empty queue is a no-op", func(t *testing.T) {
		e := newTestEngine()
		assert.Equal(t, SignalNone, e.Next())
		assert.Equal(t, -1, e.CurrentIndex())
	})
}

func TestEngine_Previous(t *testing.T) {
	t.Run("pops history for correct previous under shuffle-like jumps", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(5), 0)

		_, err := e.PlayIndex(3)
		require.NoError(t, err)
		_, err = e.PlayIndex(1)
		require.NoError(t, err)

		sig := e.Previous()
		assert.Equal(t, SignalPlay, sig)
		assert.Equal(t, 3, e.CurrentIndex())

		sig = e.Previous()
		assert.Equal(t, SignalPlay, sig)
		assert.Equal(t, 0, e.CurrentIndex())
	})

	t.Run("falls back to decrement without history", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(3), 2)

		sig := e.Previous()
		assert.Equal(t, SignalPlay, sig)
		assert.Equal(t, 1, e.CurrentIndex())
	})

	t.Run("no-op at the start", func(t *testing.T) {
		e := newTestEngine()
		e.SetItems(makeTracks(3), 0)

		sig := e.Previous()
		assert.Equal(t, SignalNone, sig)
		assert.Equal(t, 0, e.CurrentIndex())
	})

	t.Run("no-op on empty queue", func(t *testing.T) {
		e := newTestEngine()
		assert.Equal(t, SignalNone, e.Previous())
	})
}

func TestEngine_PlayIndex(t *testing.T) {
	e := newTestEngine()
	e.SetItems(makeTracks(5), 1)

	sig, err := e.PlayIndex(4)
	require.NoError(t, err)
	assert.Equal(t, SignalPlay, sig)
	assert.Equal(t, 4, e.CurrentIndex())
	assert.Equal(t, []int{1}, e.History())

	_, err = e.PlayIndex(5)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = e.PlayIndex(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestEngine_EmptyQueueErrors(t *testing.T) {
	e := newTestEngine()

	_, err := e.RemoveAt(0)
	assert.ErrorIs(t, err, ErrEmptyQueue)
	_, err = e.PlayIndex(0)
	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestEngine_RemoveAt_AdjustsHistory(t *testing.T) {
	e := newTestEngine()
	e.SetItems(makeTracks(5), 0)
	e.Next() // history [0], current 1
	e.Next() // history [0,1], current 2

	_, err := e.RemoveAt(0)
	require.NoError(t, err)

	// The entry for the removed slot is gone and the rest shifted down.
	assert.Equal(t, []int{0}, e.History())
	assert.Equal(t, 1, e.CurrentIndex())
}

func TestEngine_ConcurrentMutations(t *testing.T) {
	e := newTestEngine()
	e.SetItems(makeTracks(50), 0)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				e.Next()
				_, _ = e.PlayIndex(j % 10)
				_, _ = e.RemoveAt(j % 20)
				e.Enqueue(track.Track{ID: fmt.Sprintf("extra-%d", j)})
			}
		}()
	}
	wg.Wait()

	// Queue length never reads negative and the current index stays in
	// range after any interleaving.
	n := e.Len()
	assert.GreaterOrEqual(t, n, 0)
	if n > 0 {
		assert.GreaterOrEqual(t, e.CurrentIndex(), 0)
		assert.Less(t, e.CurrentIndex(), n)
	} else {
		assert.Equal(t, -1, e.CurrentIndex())
	}
}
