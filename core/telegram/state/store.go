package state

import "sync"

// Store keeps one session value of type T per Telegram user. Sessions are
// value-copied in and out, so handlers can mutate their copy freely and
// commit it back with Put once the turn succeeded.
type Store[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]T
	fresh    func() T
}

// NewStore constructs an empty store. The fresh function produces the
// session handed out for users seen for the first time; a nil fresh yields
// the zero value of T.
func NewStore[T any](fresh func() T) *Store[T] {
	if fresh == nil {
		fresh = func() T { var zero T; return zero }
	}
	return &Store[T]{
		sessions: make(map[int64]T),
		fresh:    fresh,
	}
}

// Get returns the user's session, or a fresh one when none is stored.
func (s *Store[T]) Get(userID int64) T {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return sess
	}
	return s.fresh()
}

// Put stores the session for a user, replacing any previous value.
func (s *Store[T]) Put(userID int64, sess T) {
	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()
}

// Reset drops the user's session so the next Get hands out a fresh one.
func (s *Store[T]) Reset(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Len reports how many users currently hold a session.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
