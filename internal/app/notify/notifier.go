// Package notify fans playback state snapshots out to UI observers.
package notify

import (
	"sync"

	"github.com/google/uuid"

	"github.com/osa030/melodeck/internal/app/playback"
)

// subscription represents one observer's buffered snapshot feed.
type subscription struct {
	id string
	ch chan playback.Snapshot
}

// Notifier manages observer subscriptions and snapshot broadcasting.
// It replaces the reactive-store propagation of a UI framework with an
// explicit observer list the core does not depend on.
type Notifier struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	closed        bool
}

// NewNotifier creates a new notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe registers an observer and returns its subscription ID and
// snapshot channel. The channel is buffered; observers that fall behind
// miss intermediate snapshots rather than blocking the player.
func (n *Notifier) Subscribe() (string, <-chan playback.Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.New().String()
	sub := &subscription{
		id: id,
		ch: make(chan playback.Snapshot, 16),
	}
	n.subscriptions[id] = sub
	return id, sub.ch
}

// Unsubscribe removes a subscription and closes its channel.
func (n *Notifier) Unsubscribe(subscriptionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if sub, ok := n.subscriptions[subscriptionID]; ok {
		delete(n.subscriptions, subscriptionID)
		close(sub.ch)
	}
}

// Publish delivers a snapshot to every subscriber without blocking.
func (n *Notifier) Publish(s playback.Snapshot) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return
	}
	for _, sub := range n.subscriptions {
		select {
		case sub.ch <- s:
		default:
		}
	}
}

// Count returns the number of active subscriptions.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscriptions)
}

// Close drops every subscription.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for id, sub := range n.subscriptions {
		delete(n.subscriptions, id)
		close(sub.ch)
	}
}
