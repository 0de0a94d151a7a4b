// Package storagetest provides in-memory stores with the same conditional-write
// semantics as the Postgres repositories.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

// JobStore is a concurrency-safe in-memory storage.JobStore
type JobStore struct {
	mu    sync.Mutex
	jobs  map[string]domain.Job
	calls map[string]int
	now   func() time.Time

	// Err, when set, is returned by every call
	Err error
}

func NewJobStore(jobs ...domain.Job) *JobStore {
	s := &JobStore{
		jobs:  make(map[string]domain.Job),
		calls: make(map[string]int),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

// Calls returns how often method was invoked
func (s *JobStore) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// TotalCalls returns the number of calls of any method
func (s *JobStore) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Snapshot returns the stored job
func (s *JobStore) Snapshot(id string) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *JobStore) record(method string) error {
	s.calls[method]++
	return s.Err
}

func (s *JobStore) filter(keep func(domain.Job) bool) []domain.Job {
	out := make([]domain.Job, 0)
	for _, j := range s.jobs {
		if keep(j) {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

func (s *JobStore) ListAvailable(_ context.Context, excludePoster string) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ListAvailable"); err != nil {
		return nil, err
	}
	return s.filter(func(j domain.Job) bool {
		return j.Status == domain.JobStatusAvailable && (excludePoster == "" || j.PosterID != excludePoster)
	}), nil
}

func (s *JobStore) ListPostedBy(_ context.Context, userID string) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ListPostedBy"); err != nil {
		return nil, err
	}
	return s.filter(func(j domain.Job) bool { return j.PosterID == userID }), nil
}

func (s *JobStore) ListClaimedBy(_ context.Context, userID string) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ListClaimedBy"); err != nil {
		return nil, err
	}
	return s.filter(func(j domain.Job) bool { return j.ClaimedBy(userID) }), nil
}

func (s *JobStore) Get(_ context.Context, id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("Get"); err != nil {
		return nil, err
	}
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &j, nil
}

func (s *JobStore) Create(_ context.Context, posterID string, in domain.NewJob) (*domain.Job, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("Create"); err != nil {
		return nil, err
	}

	now := s.now()
	j := domain.Job{
		ID:          uuid.NewString(),
		Pickup:      strings.TrimSpace(in.Pickup),
		Dropoff:     strings.TrimSpace(in.Dropoff),
		ScheduledAt: in.ScheduledAt,
		Payout:      *in.Payout,
		VehicleType: in.VehicleType,
		Notes:       in.Notes,
		PosterID:    posterID,
		Status:      domain.JobStatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.jobs[j.ID] = j
	return &j, nil
}

func (s *JobStore) UpdateStatus(_ context.Context, update domain.StatusUpdate) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("UpdateStatus"); err != nil {
		return nil, err
	}

	j, ok := s.jobs[update.JobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}

	allowed := false
	for _, from := range update.From {
		if j.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrConflict, j.Status)
	}

	j.Status = update.To
	j.UpdatedAt = s.now()
	if update.ClaimantID != nil {
		c := *update.ClaimantID
		j.ClaimantID = &c
	}
	if update.Notes != nil {
		n := *update.Notes
		j.Notes = &n
	}
	s.jobs[j.ID] = j
	return &j, nil
}
