package services

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/walkin/intake/internal/estimation"
	"github.com/walkin/intake/internal/intake"
)

var ErrSessionNotFound = errors.New("intake session not found")

type IntakeSession struct {
	ID        string
	Draft     *intake.Draft
	CreatedAt time.Time
}

// SessionService keeps one draft per intake session in memory. Drafts are
// never saved; a restart drops every session.
type SessionService struct {
	mu        sync.RWMutex
	sessions  map[string]*IntakeSession
	estimator *estimation.Estimator
	creator   intake.DonationCreator
}

func NewSessionService(estimator *estimation.Estimator, creator intake.DonationCreator) *SessionService {
	return &SessionService{
		sessions:  make(map[string]*IntakeSession),
		estimator: estimator,
		creator:   creator,
	}
}

func (s *SessionService) Estimator() *estimation.Estimator {
	return s.estimator
}

func (s *SessionService) Start() *IntakeSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := &IntakeSession{
		ID:        uuid.New().String(),
		Draft:     intake.NewDraft(s.estimator, s.creator),
		CreatedAt: time.Now(),
	}
	s.sessions[session.ID] = session
	return session
}

func (s *SessionService) Get(id string) (*IntakeSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// End forgets a session. Used after cancel and after a successful submit.
func (s *SessionService) End(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}

// Sweep drops sessions older than maxAge that are not submitting and
// returns how many were removed.
func (s *SessionService) Sweep(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, session := range s.sessions {
		if session.CreatedAt.Before(cutoff) && !session.Draft.Submitting() {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
