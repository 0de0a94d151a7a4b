package storagetest

import (
	"context"
	"sync"
	"time"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

// ProfileStore is an in-memory storage.ProfileStore
type ProfileStore struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile

	// Err, when set, is returned by every call
	Err error
}

func NewProfileStore(profiles ...domain.Profile) *ProfileStore {
	s := &ProfileStore{profiles: make(map[string]domain.Profile)}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

func (s *ProfileStore) GetProfile(_ context.Context, userID string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (s *ProfileStore) UpsertProfile(_ context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if update.Empty() {
		return nil, domain.NewValidationError("Nothing to update")
	}

	now := time.Now().UTC()
	p, ok := s.profiles[userID]
	if !ok {
		p = domain.Profile{ID: userID, CreatedAt: now}
	}
	update.Apply(&p)
	p.UpdatedAt = now
	s.profiles[userID] = p
	return &p, nil
}
