// Package session holds per-operator conversational state: rolling message
// history and the active target. Each session's state is owned by exactly one
// handler goroutine at a time; the Store only synchronizes the session map.
package session

import (
	"sync"

	"warden/internal/agent/models"
)

// Session is the per-operator mutable state carried between turns.
type Session struct {
	ID      string
	History []models.Message
	Target  *Target

	historyCap int
}

// Append adds messages to the history and trims it to the configured cap.
func (s *Session) Append(msgs ...models.Message) {
	s.History = append(s.History, msgs...)
	s.trim()
}

// trim drops the oldest messages until the history fits the cap. A function
// message whose matching tool calls were dropped is dropped with them so the
// history never opens with an unanchored tool result.
func (s *Session) trim() {
	if s.historyCap <= 0 || len(s.History) <= s.historyCap {
		return
	}
	s.History = s.History[len(s.History)-s.historyCap:]
	for len(s.History) > 0 && s.History[0].Role == "function" {
		s.History = s.History[1:]
	}
}

// Store is a concurrent-safe keyed store of sessions. Sessions are created on
// first use and live for the process lifetime.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	targets    *TargetRegistry
	historyCap int
}

// NewStore creates a session store backed by the given target registry.
func NewStore(targets *TargetRegistry, historyCap int) *Store {
	return &Store{
		sessions:   make(map[string]*Session),
		targets:    targets,
		historyCap: historyCap,
	}
}

// Get returns the session for the given identifier, creating it with the
// default target on first use.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := &Session{
		ID:         id,
		Target:     s.targets.Default(),
		historyCap: s.historyCap,
	}
	s.sessions[id] = sess
	return sess
}

// Targets returns the target registry shared by all sessions.
func (s *Store) Targets() *TargetRegistry {
	return s.targets
}
