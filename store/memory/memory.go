// Package memory provides an in-memory session store (for testing/dev).
package memory

import (
	"context"
	"sync"

	"github.com/AntObr/holiday-planner/calendar"
	"github.com/AntObr/holiday-planner/leave"
)

// =============================================================================
// MEMORY STORE - mirrors the sqlite store's API without a database
// =============================================================================

type Store struct {
	mu      sync.RWMutex
	session leave.Session
	saved   bool
}

func New() *Store {
	return &Store{}
}

// SaveSession replaces the held session. The selection slice is copied
// so later planner mutations cannot alias the stored state.
func (s *Store) SaveSession(_ context.Context, session leave.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := make([]calendar.Date, len(session.Selected))
	copy(selected, session.Selected)
	session.Selected = selected

	s.session = session
	s.saved = true
	return nil
}

// LoadSession returns the held session, or false when nothing has been
// saved yet.
func (s *Store) LoadSession(_ context.Context) (leave.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.saved {
		return leave.Session{}, false, nil
	}

	session := s.session
	selected := make([]calendar.Date, len(session.Selected))
	copy(selected, session.Selected)
	session.Selected = selected
	return session, true, nil
}

// Close is a no-op, present to satisfy the session store interface.
func (s *Store) Close() error { return nil }
