package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/melodeck/internal/app/playback"
)

func TestNotifier_SubscribePublish(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	id1, ch1 := n.Subscribe()
	id2, ch2 := n.Subscribe()
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, n.Count())

	n.Publish(playback.Snapshot{Volume: 42})

	s := <-ch1
	assert.Equal(t, 42, s.Volume)
	s = <-ch2
	assert.Equal(t, 42, s.Volume)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	id, ch := n.Subscribe()
	n.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, n.Count())

	// Unsubscribing twice is harmless.
	n.Unsubscribe(id)
}

func TestNotifier_SlowSubscriberDoesNotBlock(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	_, ch := n.Subscribe()

	// Overfill the buffer; Publish must drop rather than block.
	for i := 0; i < 40; i++ {
		n.Publish(playback.Snapshot{Volume: i})
	}

	s := <-ch
	assert.Equal(t, 0, s.Volume)
}

func TestNotifier_Close(t *testing.T) {
	n := NewNotifier()
	_, ch := n.Subscribe()

	n.Close()

	_, open := <-ch
	require.False(t, open)
	assert.Equal(t, 0, n.Count())

	// Publishing after close is a no-op.
	n.Publish(playback.Snapshot{})
	n.Close()
}
