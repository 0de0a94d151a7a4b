package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/storage"
	"github.com/cuongbtq/chauffer-be/internal/storage/storagetest"
	"github.com/cuongbtq/chauffer-be/shared/logger"
)

const (
	poster = "11111111-1111-4111-8111-111111111111"
	driver = "22222222-2222-4222-8222-222222222222"
)

func setup(t *testing.T, jobs ...domain.Job) (*Store, *storagetest.JobStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	backing := storagetest.NewJobStore(jobs...)
	return NewStore(backing, rdb, "test", time.Minute, logger.NewNop()), backing, mr
}

func job(id, posterID string, status domain.JobStatus, claimant *string) domain.Job {
	return domain.Job{
		ID:         id,
		Pickup:     "Southern Cross",
		Dropoff:    "Docklands Stadium",
		Payout:     decimal.NewFromInt(30),
		PosterID:   posterID,
		ClaimantID: claimant,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestKeys(t *testing.T) {
	k := Keys{Prefix: "chauffer"}
	d := driver

	assert.Equal(t, "chauffer:jobs:available", k.Available())
	assert.Equal(t, []string{
		"chauffer:jobs:available",
		"chauffer:jobs:posted:" + poster,
		"chauffer:jobs:claimed:" + driver,
	}, k.ForJob(&domain.Job{PosterID: poster, ClaimantID: &d}))
	assert.Equal(t, []string{"chauffer:jobs:available", "chauffer:jobs:posted:" + poster}, k.ForJob(&domain.Job{PosterID: poster}))
}

func TestStore_ReadThrough(t *testing.T) {
	store, backing, mr := setup(t, job("a", poster, domain.JobStatusAvailable, nil))
	ctx := context.Background()

	first, err := store.ListAvailable(ctx, "")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists("test:jobs:available"))
	assert.Greater(t, mr.TTL("test:jobs:available"), time.Duration(0))

	second, err := store.ListAvailable(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, backing.Calls("ListAvailable"), "second read served from cache")
}

func TestStore_ListAvailableHidesOwnJobs(t *testing.T) {
	store, backing, _ := setup(t,
		job("mine", poster, domain.JobStatusAvailable, nil),
		job("theirs", driver, domain.JobStatusAvailable, nil),
	)
	ctx := context.Background()

	forPoster, err := store.ListAvailable(ctx, poster)
	require.NoError(t, err)
	require.Len(t, forPoster, 1)
	assert.Equal(t, "theirs", forPoster[0].ID)

	forDriver, err := store.ListAvailable(ctx, driver)
	require.NoError(t, err)
	require.Len(t, forDriver, 1)
	assert.Equal(t, "mine", forDriver[0].ID)

	assert.Equal(t, 1, backing.Calls("ListAvailable"), "one shared entry serves every viewer")
}

func TestStore_InvalidateJob(t *testing.T) {
	d := driver
	claimed := job("a", poster, domain.JobStatusClaimed, &d)
	store, backing, mr := setup(t, claimed)
	ctx := context.Background()

	_, err := store.ListPostedBy(ctx, poster)
	require.NoError(t, err)
	_, err = store.ListClaimedBy(ctx, driver)
	require.NoError(t, err)
	_, err = store.ListAvailable(ctx, "")
	require.NoError(t, err)
	require.True(t, mr.Exists("test:jobs:claimed:"+driver))

	store.InvalidateJob(ctx, &claimed, nil)

	assert.False(t, mr.Exists("test:jobs:available"))
	assert.False(t, mr.Exists("test:jobs:posted:"+poster))
	assert.False(t, mr.Exists("test:jobs:claimed:"+driver))

	_, err = store.ListPostedBy(ctx, poster)
	require.NoError(t, err)
	assert.Equal(t, 2, backing.Calls("ListPostedBy"))
}

// pausingStore holds ListPostedBy after it has read from the backing store
type pausingStore struct {
	storage.JobStore
	loaded  chan struct{}
	release chan struct{}
}

func (p *pausingStore) ListPostedBy(ctx context.Context, userID string) ([]domain.Job, error) {
	jobs, err := p.JobStore.ListPostedBy(ctx, userID)
	close(p.loaded)
	<-p.release
	return jobs, err
}

func TestStore_InvalidationDuringLoadIsNotOverwritten(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	backing := storagetest.NewJobStore(job("a", poster, domain.JobStatusAvailable, nil))
	pausing := &pausingStore{JobStore: backing, loaded: make(chan struct{}), release: make(chan struct{})}
	store := NewStore(pausing, rdb, "test", time.Minute, logger.NewNop())
	ctx := context.Background()

	type result struct {
		jobs []domain.Job
		err  error
	}
	done := make(chan result, 1)
	go func() {
		jobs, err := store.ListPostedBy(ctx, poster)
		done <- result{jobs, err}
	}()
	<-pausing.loaded

	d := driver
	claimed, err := store.UpdateStatus(ctx, domain.StatusUpdate{
		JobID:      "a",
		From:       []domain.JobStatus{domain.JobStatusAvailable},
		To:         domain.JobStatusClaimed,
		ClaimantID: &d,
	})
	require.NoError(t, err)
	store.InvalidateJob(ctx, claimed)

	close(pausing.release)
	first := <-done
	require.NoError(t, first.err)
	require.Len(t, first.jobs, 1)
	assert.Equal(t, domain.JobStatusAvailable, first.jobs[0].Status, "the paused reader still sees what it loaded")
	assert.False(t, mr.Exists("test:jobs:posted:"+poster), "pre-claim list must not be cached")

	fresh, err := NewStore(backing, rdb, "test", time.Minute, logger.NewNop()).ListPostedBy(ctx, poster)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, domain.JobStatusClaimed, fresh[0].Status)
	assert.True(t, mr.Exists("test:jobs:posted:"+poster))
}

func TestStore_InvalidateBumpsGeneration(t *testing.T) {
	store, _, mr := setup(t)
	j := job("a", poster, domain.JobStatusAvailable, nil)

	store.InvalidateJob(context.Background(), &j)
	store.InvalidateJob(context.Background(), &j)

	gen, err := mr.Get("test:jobs:posted:" + poster + ":gen")
	require.NoError(t, err)
	assert.Equal(t, "2", gen)
	assert.Greater(t, mr.TTL("test:jobs:available:gen"), time.Duration(0))
}

func TestStore_FallsThroughWhenRedisIsDown(t *testing.T) {
	store, backing, mr := setup(t, job("a", poster, domain.JobStatusAvailable, nil))
	mr.Close()

	jobs, err := store.ListPostedBy(context.Background(), poster)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, 1, backing.Calls("ListPostedBy"))

	store.InvalidateJob(context.Background(), &jobs[0])
}

func TestStore_DiscardsCorruptEntry(t *testing.T) {
	store, backing, mr := setup(t, job("a", poster, domain.JobStatusAvailable, nil))
	require.NoError(t, mr.Set("test:jobs:posted:"+poster, "{not json"))

	jobs, err := store.ListPostedBy(context.Background(), poster)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, 1, backing.Calls("ListPostedBy"))
}

func TestStore_StoreErrorsAreNotCached(t *testing.T) {
	store, backing, mr := setup(t)
	backing.Err = &domain.RepositoryError{Op: "list", Err: assert.AnError}

	_, err := store.ListClaimedBy(context.Background(), driver)
	require.Error(t, err)
	assert.False(t, mr.Exists("test:jobs:claimed:"+driver))
}

func TestStore_WritesPassThrough(t *testing.T) {
	store, backing, _ := setup(t, job("a", poster, domain.JobStatusAvailable, nil))

	got, err := store.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, 1, backing.Calls("Get"))
}
