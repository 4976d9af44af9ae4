package conversation

import (
	"sync"
	"time"
)

// DefaultSessionWindow is how long an idle session is kept before it expires.
const DefaultSessionWindow = 30 * time.Minute

// SessionStore is the contract the render pass relies on.
type SessionStore interface {
	// Get returns a snapshot of the session, creating it with defaults if absent.
	Get(sessionID string) State

	// WithSession runs fn with exclusive access to the session's state.
	WithSession(sessionID string, fn func(*State) error) error

	// Reset empties the message log and restores the history toggle.
	Reset(sessionID string)

	// End discards the session entirely.
	End(sessionID string)
}

// entry guards one session. lastSeen and active are protected by Store.mu,
// state by entry.mu.
type entry struct {
	state    *State
	lastSeen time.Time
	active   int
	mu       sync.Mutex
}

// Store keeps session state in memory, keyed by session ID.
type Store struct {
	sessions map[string]*entry
	now      func() time.Time
	window   time.Duration
	mu       sync.RWMutex
}

// NewStore creates a session store whose sessions expire after window of inactivity.
func NewStore(window time.Duration) *Store {
	if window <= 0 {
		window = DefaultSessionWindow
	}

	return &Store{
		sessions: make(map[string]*entry),
		window:   window,
		now:      time.Now,
	}
}

// acquire returns the entry for sessionID, creating a fresh one if none exists
// or the current one expired. The entry is marked active until release is called.
func (s *Store) acquire(sessionID string) (*entry, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	e, exists := s.sessions[sessionID]
	if !exists || (e.active == 0 && now.Sub(e.lastSeen) > s.window) {
		e = &entry{state: NewState(sessionID, now)}
		s.sessions[sessionID] = e
	}

	e.lastSeen = now
	e.active++
	return e, now
}

func (s *Store) release(e *entry) {
	s.mu.Lock()
	e.active--
	e.lastSeen = s.now()
	s.mu.Unlock()
}

// Get returns a snapshot of the session, creating it with defaults if absent.
func (s *Store) Get(sessionID string) State {
	e, now := s.acquire(sessionID)
	defer s.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.LastActivity = now
	return e.state.Clone()
}

// WithSession runs fn while holding the session's lock, so at most one render
// pass mutates a given session at a time. Other sessions are not blocked.
func (s *Store) WithSession(sessionID string, fn func(*State) error) error {
	e, now := s.acquire(sessionID)
	defer s.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.LastActivity = now
	return fn(e.state)
}

// Reset empties the message log and restores the history toggle.
func (s *Store) Reset(sessionID string) {
	_ = s.WithSession(sessionID, func(st *State) error {
		st.Reset()
		return nil
	})
}

// End discards the session entirely.
func (s *Store) End(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
}

// SweepResult describes one pass over the store.
type SweepResult struct {
	Removed   int
	InFlight  int
	Remaining int
}

// Sweep removes idle sessions. Sessions with a render pass in flight are
// never removed and are counted in InFlight.
func (s *Store) Sweep() SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var res SweepResult

	for id, e := range s.sessions {
		switch {
		case e.active > 0:
			res.InFlight++
		case now.Sub(e.lastSeen) > s.window:
			delete(s.sessions, id)
			res.Removed++
		}
	}

	res.Remaining = len(s.sessions)
	return res
}

// CleanupExpired removes idle sessions and returns how many were dropped.
func (s *Store) CleanupExpired() int {
	return s.Sweep().Removed
}

// Window returns how long an idle session is kept.
func (s *Store) Window() time.Duration {
	return s.window
}

// Stats returns current session statistics.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := 0
	now := s.now()

	for _, e := range s.sessions {
		if e.active > 0 || now.Sub(e.lastSeen) <= s.window {
			active++
		}
	}

	return map[string]int{
		"total":  len(s.sessions),
		"active": active,
	}
}

// Snapshot copies every session. Each session is locked only while it is copied.
func (s *Store) Snapshot() map[string]*State {
	s.mu.RLock()
	entries := make(map[string]*entry, len(s.sessions))
	for id, e := range s.sessions {
		entries[id] = e
	}
	s.mu.RUnlock()

	out := make(map[string]*State, len(entries))
	for id, e := range entries {
		e.mu.Lock()
		c := e.state.Clone()
		e.mu.Unlock()
		out[id] = &c
	}
	return out
}

// Load replaces the store contents with states, skipping ones already expired.
// It returns the number of sessions loaded.
func (s *Store) Load(states map[string]*State) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*entry, len(states))
	now := s.now()

	for id, st := range states {
		if st == nil || now.Sub(st.LastActivity) > s.window {
			continue
		}
		c := st.Clone()
		c.ID = id
		s.sessions[id] = &entry{state: &c, lastSeen: st.LastActivity}
	}

	return len(s.sessions)
}
