package core

import (
	"log/slog"
	"sync"
	"time"
)

// Session is the server-side record of one live connection. The transport
// assigns the id at connect time; identity fields are randomized once and
// never change, cursor and room binding mutate through the registry.
type Session struct {
	ID          string
	UserID      string // display name, e.g. "Anonymous #742"
	Color       string
	MouseX      float64
	MouseY      float64
	RoomID      string // empty until the first join_room
	ConnectedAt time.Time
}

// SessionRegistry owns every live Session. All access goes through its
// methods; callers get value copies, never shared pointers.
type SessionRegistry struct {
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionRegistry(log *slog.Logger) *SessionRegistry {
	return &SessionRegistry{log: log, sessions: map[string]*Session{}}
}

// Create inserts a Session with fresh random identity and zeroed cursor.
// Duplicate ids are a transport bug: logged and ignored.
func (r *SessionRegistry) Create(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		r.log.Warn("session.create.duplicate", "session_id", id)
		return Session{}, false
	}
	s := &Session{
		ID:          id,
		UserID:      newDisplayName(),
		Color:       newColor(),
		ConnectedAt: time.Now(),
	}
	r.sessions[id] = s
	return *s, true
}

// Get returns a copy of the session, if present.
func (r *SessionRegistry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Remove deletes the entry. Idempotent.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// SetRoom binds (or clears, with "") the session's room reference.
func (r *SessionRegistry) SetRoom(id, roomID string) {
	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		s.RoomID = roomID
	}
	r.mu.Unlock()
}

// UpdateCursor records the last known cursor position.
func (r *SessionRegistry) UpdateCursor(id string, x, y float64) {
	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		s.MouseX = x
		s.MouseY = y
	}
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
