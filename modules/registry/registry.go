package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/example/room-chat-server/domain/chat"
)

// SessionRegistry is the authoritative map of connection to session. It is
// the single writer of session state: every join and disconnect funnels
// through Register/Unregister, and room rosters are derived from it live.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
	now      func() time.Time
}

// NewSessionRegistry creates an empty session registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*chat.Session),
		now:      time.Now,
	}
}

// Register records a session for the connection, replacing any prior one.
// Replacement is atomic: a connection re-joining into a new room is never
// observable in both rooms, nor in neither. The previous session is
// returned so the caller can announce the departure from the old room.
func (r *SessionRegistry) Register(connectionID, username, room string) (session chat.Session, previous *chat.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sessions[connectionID]; ok {
		prev := *old
		previous = &prev
	}

	s := &chat.Session{
		ConnectionID: connectionID,
		Username:     username,
		Room:         room,
		JoinedAt:     r.now(),
	}
	r.sessions[connectionID] = s
	return *s, previous
}

// Unregister removes the connection's session and returns it. Unregistering
// a connection with no session is a no-op, never a fault.
func (r *SessionRegistry) Unregister(connectionID string) (chat.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return chat.Session{}, false
	}
	delete(r.sessions, connectionID)
	return *s, true
}

// Get returns the session for a connection, if any.
func (r *SessionRegistry) Get(connectionID string) (chat.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return chat.Session{}, false
	}
	return *s, true
}

// SessionsIn returns the sessions currently in a room, ordered by join
// time (ties broken by connection id for a stable order).
func (r *SessionRegistry) SessionsIn(room string) []chat.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessionsInLocked(room)
}

// RosterOf returns the room's online-user roster, derived live from the
// registry under the same lock, so it can never lag a registry mutation.
func (r *SessionRegistry) RosterOf(room string) []chat.RosterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := r.sessionsInLocked(room)
	roster := make([]chat.RosterEntry, 0, len(sessions))
	for _, s := range sessions {
		roster = append(roster, chat.RosterEntry{
			ConnectionID: s.ConnectionID,
			Username:     s.Username,
			Room:         s.Room,
			JoinedAt:     s.JoinedAt,
		})
	}
	return roster
}

// SessionsOf returns every session a username currently holds. A user may
// hold several when connected from multiple tabs or devices.
func (r *SessionRegistry) SessionsOf(username string) []chat.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]chat.Session, 0)
	for _, s := range r.sessions {
		if s.Username == username {
			result = append(result, *s)
		}
	}
	return result
}

// Count returns the total number of registered sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRegistry) sessionsInLocked(room string) []chat.Session {
	result := make([]chat.Session, 0)
	for _, s := range r.sessions {
		if s.Room == room {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].JoinedAt.Equal(result[j].JoinedAt) {
			return result[i].ConnectionID < result[j].ConnectionID
		}
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})
	return result
}
