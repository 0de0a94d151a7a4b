package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/storage"
)

// Invalidator drops cached list views touched by a job
type Invalidator interface {
	InvalidateJob(ctx context.Context, jobs ...*domain.Job)
}

// generationTTL outlives any single store read; an expired counter only skips one cache fill
const generationTTL = 24 * time.Hour

// Keys builds the Redis keys of the cached views
type Keys struct {
	Prefix string
}

func (k Keys) Available() string {
	return k.Prefix + ":jobs:available"
}

func (k Keys) Posted(userID string) string {
	return fmt.Sprintf("%s:jobs:posted:%s", k.Prefix, userID)
}

func (k Keys) Claimed(userID string) string {
	return fmt.Sprintf("%s:jobs:claimed:%s", k.Prefix, userID)
}

// Generation is the counter bumped each time view is invalidated
func (k Keys) Generation(view string) string {
	return view + ":gen"
}

// ForJob lists the views a job appears in
func (k Keys) ForJob(job *domain.Job) []string {
	keys := []string{k.Available()}
	if job.PosterID != "" {
		keys = append(keys, k.Posted(job.PosterID))
	}
	if job.ClaimantID != nil && *job.ClaimantID != "" {
		keys = append(keys, k.Claimed(*job.ClaimantID))
	}
	return keys
}

// Store is a read-through JobStore. Writes pass through untouched; callers invalidate.
type Store struct {
	storage.JobStore
	rdb    *redis.Client
	keys   Keys
	ttl    time.Duration
	logger *slog.Logger
}

func NewStore(next storage.JobStore, rdb *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		JobStore: next,
		rdb:      rdb,
		keys:     Keys{Prefix: prefix},
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "job_cache")),
	}
}

// ListAvailable caches the unfiltered list once and removes the caller's postings in memory
func (s *Store) ListAvailable(ctx context.Context, excludePoster string) ([]domain.Job, error) {
	jobs, err := s.readThrough(ctx, s.keys.Available(), func() ([]domain.Job, error) {
		return s.JobStore.ListAvailable(ctx, "")
	})
	if err != nil || excludePoster == "" {
		return jobs, err
	}

	visible := make([]domain.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.PosterID != excludePoster {
			visible = append(visible, j)
		}
	}
	return visible, nil
}

func (s *Store) ListPostedBy(ctx context.Context, userID string) ([]domain.Job, error) {
	return s.readThrough(ctx, s.keys.Posted(userID), func() ([]domain.Job, error) {
		return s.JobStore.ListPostedBy(ctx, userID)
	})
}

func (s *Store) ListClaimedBy(ctx context.Context, userID string) ([]domain.Job, error) {
	return s.readThrough(ctx, s.keys.Claimed(userID), func() ([]domain.Job, error) {
		return s.JobStore.ListClaimedBy(ctx, userID)
	})
}

// InvalidateJob deletes every view the given job images belong to
func (s *Store) InvalidateJob(ctx context.Context, jobs ...*domain.Job) {
	seen := make(map[string]struct{})
	var keys []string
	for _, job := range jobs {
		if job == nil {
			continue
		}
		for _, k := range s.keys.ForJob(job) {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}

	if len(keys) == 0 {
		return
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			gen := s.keys.Generation(k)
			pipe.Incr(ctx, gen)
			pipe.Expire(ctx, gen, generationTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to invalidate job views",
			slog.Any("keys", keys),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Debug("Invalidated job views", slog.Any("keys", keys))
}

func (s *Store) readThrough(ctx context.Context, key string, load func() ([]domain.Job, error)) ([]domain.Job, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var jobs []domain.Job
		if err := json.Unmarshal(raw, &jobs); err == nil {
			return jobs, nil
		}
		s.logger.Warn("Discarding unreadable cache entry", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("Cache read failed, falling back to store",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}

	genKey := s.keys.Generation(key)
	before, genErr := s.generation(ctx, genKey)

	jobs, err := load()
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return jobs, nil
	}

	payload, err := json.Marshal(jobs)
	if err != nil {
		return jobs, nil
	}

	// Fill only if no invalidation ran since the generation was read
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != before {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleLoad), errors.Is(err, redis.TxFailedErr):
		s.logger.Debug("Skipped cache fill after concurrent invalidation", slog.String("key", key))
	default:
		s.logger.Warn("Cache write failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}

	return jobs, nil
}

var errStaleLoad = errors.New("view invalidated during load")

// generation returns the view's counter, empty when it has never been bumped
func (s *Store) generation(ctx context.Context, genKey string) (string, error) {
	gen, err := s.rdb.Get(ctx, genKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return gen, err
}

// Noop is the Invalidator used when caching is disabled
type Noop struct{}

func (Noop) InvalidateJob(context.Context, ...*domain.Job) {}
