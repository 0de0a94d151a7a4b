package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Transition is a sign-in state change
type Transition int

const (
	SignedIn Transition = iota + 1
	SignedOut
)

func (t Transition) String() string {
	switch t {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Session is one signed-in period of a user
type Session struct {
	ID        string
	Identity  Identity
	StartedAt time.Time
}

// UserID is a shorthand for s.Identity.UserID
func (s *Session) UserID() string {
	return s.Identity.UserID
}

// Event is delivered to transition observers
type Event struct {
	Transition Transition
	Session    *Session
}

// Store tracks active sessions per user and notifies observers of transitions
type Store struct {
	logger *slog.Logger

	mu        sync.RWMutex
	sessions  map[string]*Session
	observers []func(Event)
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// OnTransition registers fn; it is called synchronously after each transition
func (s *Store) OnTransition(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// SignIn returns the active session for id, creating one if needed
func (s *Store) SignIn(id Identity) *Session {
	s.mu.Lock()
	if existing, ok := s.sessions[id.UserID]; ok {
		if id.Email != "" {
			existing.Identity.Email = id.Email
		}
		s.mu.Unlock()
		return existing
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Identity:  id,
		StartedAt: time.Now().UTC(),
	}
	s.sessions[id.UserID] = sess
	observers := s.snapshotObservers()
	s.mu.Unlock()

	s.logger.Info("User signed in",
		slog.String("user_id", id.UserID),
		slog.String("session_id", sess.ID),
	)
	notify(observers, Event{Transition: SignedIn, Session: sess})

	return sess
}

// SignOut ends the user's session. It reports false when none was active.
func (s *Store) SignOut(userID string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.sessions, userID)
	observers := s.snapshotObservers()
	s.mu.Unlock()

	s.logger.Info("User signed out",
		slog.String("user_id", userID),
		slog.String("session_id", sess.ID),
	)
	notify(observers, Event{Transition: SignedOut, Session: sess})

	return true
}

// Current returns the active session for userID
func (s *Store) Current(userID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

func (s *Store) snapshotObservers() []func(Event) {
	out := make([]func(Event), len(s.observers))
	copy(out, s.observers)
	return out
}

func notify(observers []func(Event), ev Event) {
	for _, fn := range observers {
		fn(ev)
	}
}
