package registry

import (
	"sync"
	"time"

	"github.com/example/room-chat-server/domain/chat"
)

// TypingEntry records the latest typing report for one connection.
type TypingEntry struct {
	ConnectionID  string
	Username      string
	Room          string
	LastUpdatedAt time.Time
}

// TypingAggregator keeps the set of connections currently reported as
// typing, at most one entry per connection. The latest report always wins;
// a stop report removes the entry. No staleness is inferred from elapsed
// time: clients are responsible for re-sending stop.
type TypingAggregator struct {
	mu      sync.RWMutex
	entries map[string]*TypingEntry
	now     func() time.Time
}

// NewTypingAggregator creates an empty typing aggregator.
func NewTypingAggregator() *TypingAggregator {
	return &TypingAggregator{
		entries: make(map[string]*TypingEntry),
		now:     time.Now,
	}
}

// SetTyping records the latest typing state for a connection. isTyping
// false removes the entry; repeated stops are no-ops.
func (t *TypingAggregator) SetTyping(session chat.Session, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !isTyping {
		delete(t.entries, session.ConnectionID)
		return
	}

	t.entries[session.ConnectionID] = &TypingEntry{
		ConnectionID:  session.ConnectionID,
		Username:      session.Username,
		Room:          session.Room,
		LastUpdatedAt: t.now(),
	}
}

// Clear removes any typing entry for the connection. Used on disconnect.
func (t *TypingAggregator) Clear(connectionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, connectionID)
}

// TypersIn returns the usernames currently typing in a room.
func (t *TypingAggregator) TypersIn(room string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	typers := make([]string, 0)
	for _, e := range t.entries {
		if e.Room == room {
			typers = append(typers, e.Username)
		}
	}
	return typers
}
