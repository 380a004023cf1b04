// Package session isolates per-user dashboard state. Sessions own nothing
// but their filter selection; the base bundle is shared read-only and only
// ever replaced as a whole.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"superstore-dashboard/src/dataset"
	"superstore-dashboard/src/processor"
)

// Session is one user's filter state.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.RWMutex
	selection processor.Selection
}

// Selection returns a copy of the current filter selection.
func (s *Session) Selection() processor.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return processor.Selection{
		Regions:  append([]string(nil), s.selection.Regions...),
		Segments: append([]string(nil), s.selection.Segments...),
	}
}

// SetSelection replaces the filter selection.
func (s *Session) SetSelection(sel processor.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
}

// Store holds the shared base bundle and the live sessions.
type Store struct {
	mu       sync.RWMutex
	bundle   *dataset.Bundle
	sessions map[string]*Session
}

func NewStore(bundle *dataset.Bundle) *Store {
	return &Store{
		bundle:   bundle,
		sessions: make(map[string]*Session),
	}
}

// Bundle returns the current base bundle snapshot.
func (st *Store) Bundle() *dataset.Bundle {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.bundle
}

// SwapBundle installs a freshly loaded bundle. Sessions keep their
// selections; their next dashboard is computed against the new snapshot.
func (st *Store) SwapBundle(bundle *dataset.Bundle) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.bundle = bundle
}

// Create registers a new session with the default "all values" selection.
func (st *Store) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get looks a session up by id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	return s, nil
}

// Delete drops a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}
