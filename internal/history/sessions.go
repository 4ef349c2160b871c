package history

import (
	"sync"
	"time"
)

type session struct {
	history  *History
	lastSeen time.Time
}

// Sessions maps session ids to their histories. A session that has been idle
// longer than maxIdle is dropped along with its history.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*session
	maxIdle  time.Duration
	now      func() time.Time
}

func NewSessions(maxIdle time.Duration) *Sessions {
	return &Sessions{
		sessions: make(map[string]*session),
		maxIdle:  maxIdle,
		now:      time.Now,
	}
}

// Get returns the history for id, creating it if needed, and marks the
// session as active.
func (s *Sessions) Get(id string) *History {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.sessions[id]
	if !ok || s.idle(sess, now) {
		sess = &session{history: New()}
		s.sessions[id] = sess
	}
	sess.lastSeen = now
	return sess.history
}

func (s *Sessions) End(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Prune drops idle sessions and returns how many were removed.
func (s *Sessions) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if s.idle(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) idle(sess *session, now time.Time) bool {
	return s.maxIdle > 0 && now.Sub(sess.lastSeen) > s.maxIdle
}
