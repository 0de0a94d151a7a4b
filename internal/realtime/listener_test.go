package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/chauffer-be/internal/changefeed"
	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/session"
	"github.com/cuongbtq/chauffer-be/shared/logger"
)

const (
	me       = "11111111-1111-4111-8111-111111111111"
	someone  = "22222222-2222-4222-8222-222222222222"
	stranger = "33333333-3333-4333-8333-333333333333"
)

type recordingNotifier struct {
	mu       sync.Mutex
	toasts   []Notification
	requests int
	system   []Notification
}

func (r *recordingNotifier) Toast(_ string, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, n)
}

func (r *recordingNotifier) RequestPermission(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests++
}

func (r *recordingNotifier) SystemNotify(_ string, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.system = append(r.system, n)
}

func (r *recordingNotifier) toastCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.toasts)
}

func newSession(userID, id string) *session.Session {
	return &session.Session{ID: id, Identity: session.Identity{UserID: userID}}
}

func update(jobID, poster string, claimant *string, status domain.JobStatus) domain.ChangeEvent {
	return domain.ChangeEvent{
		Kind:  domain.ChangeUpdate,
		Table: domain.JobsTable,
		New:   &domain.Job{ID: jobID, PosterID: poster, ClaimantID: claimant, Status: status},
	}
}

func ptr(s string) *string { return &s }

func setup(t *testing.T) (*Listener, *changefeed.Broadcaster, *recordingNotifier) {
	t.Helper()
	feed := changefeed.NewBroadcaster(16, logger.NewNop())
	notifier := &recordingNotifier{}
	l := NewListener(feed, notifier, logger.NewNop())
	t.Cleanup(l.Close)
	return l, feed, notifier
}

func TestListener_RelevantEvent(t *testing.T) {
	l, feed, notifier := setup(t)
	require.NoError(t, l.Subscribe(newSession(me, "s1"), "client-1"))

	feed.Publish(update("job-1", me, ptr(someone), domain.JobStatusInProgress))

	require.Eventually(t, func() bool { return notifier.toastCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, l.HasUnread(me))

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, Notification{
		Title:  "Job Update",
		Body:   "Your job is now in progress.",
		JobID:  "job-1",
		Status: domain.JobStatusInProgress,
	}, notifier.toasts[0])
	assert.Equal(t, 1, notifier.requests, "permission requested while undecided")
	assert.Empty(t, notifier.system)
}

func TestListener_IrrelevantEventLeavesNoTrace(t *testing.T) {
	l, feed, notifier := setup(t)
	require.NoError(t, l.Subscribe(newSession(me, "s1"), "client-1"))

	feed.Publish(update("job-x", someone, ptr(stranger), domain.JobStatusClaimed))
	feed.Publish(update("job-y", me, nil, domain.JobStatusAvailable))

	require.Eventually(t, func() bool { return notifier.toastCount() == 1 }, time.Second, 5*time.Millisecond)
	notifier.mu.Lock()
	assert.Equal(t, "job-y", notifier.toasts[0].JobID)
	notifier.mu.Unlock()
}

func TestListener_DedupesPerJob(t *testing.T) {
	l, feed, notifier := setup(t)
	require.NoError(t, l.Subscribe(newSession(me, "s1"), "client-1"))
	l.SetPermission(me, PermissionGranted)

	feed.Publish(update("job-1", me, ptr(someone), domain.JobStatusClaimed))
	feed.Publish(update("job-1", me, ptr(someone), domain.JobStatusInProgress))
	feed.Publish(update("job-2", someone, ptr(me), domain.JobStatusActive))

	require.Eventually(t, func() bool { return notifier.toastCount() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Len(t, notifier.toasts, 2)
	assert.Equal(t, "A job has been claimed!", notifier.toasts[0].Body)
	assert.Equal(t, "A job has been claimed!", notifier.toasts[1].Body, "legacy active reads as claimed")
	assert.Len(t, notifier.system, 2)
	assert.Zero(t, notifier.requests)
}

func TestListener_DeniedPermission(t *testing.T) {
	l, feed, notifier := setup(t)
	require.NoError(t, l.Subscribe(newSession(me, "s1"), "client-1"))
	l.SetPermission(me, PermissionDenied)

	feed.Publish(update("job-1", me, nil, domain.JobStatusCancelled))

	require.Eventually(t, func() bool { return notifier.toastCount() == 1 }, time.Second, 5*time.Millisecond)
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Zero(t, notifier.requests)
	assert.Empty(t, notifier.system)
}

func TestListener_DeleteUsesOldRow(t *testing.T) {
	l, feed, notifier := setup(t)
	require.NoError(t, l.Subscribe(newSession(me, "s1"), "client-1"))

	feed.Publish(domain.ChangeEvent{
		Kind:  domain.ChangeDelete,
		Table: domain.JobsTable,
		Old:   &domain.Job{ID: "job-1", PosterID: me, Status: domain.JobStatusCompleted},
	})

	require.Eventually(t, func() bool { return notifier.toastCount() == 1 }, time.Second, 5*time.Millisecond)
	notifier.mu.Lock()
	assert.Equal(t, "A job has been completed!", notifier.toasts[0].Body)
	notifier.mu.Unlock()
}

func TestListener_SingleSubscriptionPerUser(t *testing.T) {
	l, feed, _ := setup(t)
	sess := newSession(me, "s1")

	require.NoError(t, l.Subscribe(sess, "client-1"))
	require.NoError(t, l.Subscribe(sess, "client-2"))
	assert.Equal(t, 1, feed.Subscribers())

	l.Unsubscribe(me, "client-3")
	assert.True(t, l.Active(me), "unknown clients cannot unsubscribe")

	l.Unsubscribe(me, "client-2")
	assert.True(t, l.Active(me), "client-1 still holds the subscription")

	l.Unsubscribe(me, "client-1")
	assert.False(t, l.Active(me))
	assert.Eventually(t, func() bool { return feed.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, l.Subscribe(sess, "client-2"))
	assert.True(t, l.Active(me))
}

func TestListener_SubscriptionOutlivesFirstClient(t *testing.T) {
	l, feed, notifier := setup(t)
	sess := newSession(me, "s1")

	require.NoError(t, l.Subscribe(sess, "client-1"))
	require.NoError(t, l.Subscribe(sess, "client-2"))

	l.Unsubscribe(me, "client-1")
	assert.True(t, l.Active(me))
	assert.Equal(t, 1, feed.Subscribers())

	feed.Publish(update("job-1", me, nil, domain.JobStatusClaimed))
	require.Eventually(t, func() bool { return notifier.toastCount() == 1 }, time.Second, 5*time.Millisecond)

	l.Unsubscribe(me, "client-2")
	assert.False(t, l.Active(me))
	assert.Eventually(t, func() bool { return feed.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

// gatedFeed holds Subscribe until release is closed
type gatedFeed struct {
	*changefeed.Broadcaster
	entered chan struct{}
	release chan struct{}
}

func newGatedFeed() *gatedFeed {
	return &gatedFeed{
		Broadcaster: changefeed.NewBroadcaster(16, logger.NewNop()),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (f *gatedFeed) Subscribe(ctx context.Context, name string) (changefeed.Subscription, error) {
	close(f.entered)
	<-f.release
	return f.Broadcaster.Subscribe(ctx, name)
}

func TestListener_SlowFeedDoesNotBlockReaders(t *testing.T) {
	feed := newGatedFeed()
	l := NewListener(feed, &recordingNotifier{}, logger.NewNop())
	defer l.Close()

	done := make(chan error, 1)
	go func() { done <- l.Subscribe(newSession(me, "s1"), "client-1") }()
	<-feed.entered

	read := make(chan struct{})
	go func() {
		l.HasUnread(me)
		l.MarkAsRead(me)
		l.SetPermission(me, PermissionGranted)
		close(read)
	}()
	select {
	case <-read:
	case <-time.After(time.Second):
		t.Fatal("state access blocked behind the feed")
	}
	assert.False(t, l.Active(me), "not active until the feed answers")

	close(feed.release)
	require.NoError(t, <-done)
	assert.True(t, l.Active(me))
	assert.Equal(t, 1, feed.Subscribers())
}

func TestListener_UnsubscribeWhileFeedPending(t *testing.T) {
	feed := newGatedFeed()
	l := NewListener(feed, &recordingNotifier{}, logger.NewNop())
	defer l.Close()

	done := make(chan error, 1)
	go func() { done <- l.Subscribe(newSession(me, "s1"), "client-1") }()
	<-feed.entered

	l.Unsubscribe(me, "client-1")
	close(feed.release)

	require.NoError(t, <-done)
	assert.False(t, l.Active(me))
	assert.Eventually(t, func() bool { return feed.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestListener_MarkAsRead(t *testing.T) {
	l, feed, notifier := setup(t)
	require.NoError(t, l.Subscribe(newSession(me, "s1"), "client-1"))

	assert.False(t, l.HasUnread(me))
	feed.Publish(update("job-1", me, nil, domain.JobStatusCompleted))
	require.Eventually(t, func() bool { return l.HasUnread(me) }, time.Second, 5*time.Millisecond)

	l.MarkAsRead(me)
	assert.False(t, l.HasUnread(me))
	assert.Equal(t, 1, notifier.toastCount())
}

func TestListener_SignOutTearsDown(t *testing.T) {
	l, feed, notifier := setup(t)
	store := session.NewStore(logger.NewNop())
	store.OnTransition(l.HandleSession)

	first := store.SignIn(session.Identity{UserID: me})
	require.NoError(t, l.Subscribe(first, "client-1"))

	feed.Publish(update("job-1", me, nil, domain.JobStatusClaimed))
	require.Eventually(t, func() bool { return notifier.toastCount() == 1 }, time.Second, 5*time.Millisecond)

	store.SignOut(me)
	assert.False(t, l.Active(me))
	assert.False(t, l.HasUnread(me))
	assert.Eventually(t, func() bool { return feed.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	second := store.SignIn(session.Identity{UserID: me})
	require.NoError(t, l.Subscribe(second, "client-9"))

	feed.Publish(update("job-1", me, nil, domain.JobStatusCancelled))
	require.Eventually(t, func() bool { return notifier.toastCount() == 2 }, time.Second, 5*time.Millisecond, "dedupe set resets with the session")
}

type failingFeed struct{}

func (failingFeed) Subscribe(context.Context, string) (changefeed.Subscription, error) {
	return nil, errors.New("channel error")
}

func TestListener_SubscribeFailure(t *testing.T) {
	l := NewListener(failingFeed{}, &recordingNotifier{}, logger.NewNop())
	defer l.Close()

	err := l.Subscribe(newSession(me, "s1"), "client-1")
	require.Error(t, err)
	assert.False(t, l.Active(me))

	assert.ErrorIs(t, l.Subscribe(nil, "client-1"), domain.ErrAuthRequired)
}

func TestMessageFor(t *testing.T) {
	tests := map[domain.JobStatus]string{
		domain.JobStatusInProgress: "Your job is now in progress.",
		domain.JobStatusCompleted:  "A job has been completed!",
		domain.JobStatusCancelled:  "A job was cancelled.",
		domain.JobStatusClaimed:    "A job has been claimed!",
		domain.JobStatusActive:     "A job has been claimed!",
		domain.JobStatusAvailable:  "There's an update to one of your jobs.",
		"":                         "There's an update to one of your jobs.",
	}

	for status, want := range tests {
		assert.Equal(t, want, MessageFor(status), "status %q", status)
	}
}

func TestSubscriptionName(t *testing.T) {
	assert.Equal(t, "realtime:public:jobs:notifications:"+me, SubscriptionName(me))
}

func TestParsePermission(t *testing.T) {
	assert.Equal(t, PermissionGranted, ParsePermission("granted"))
	assert.Equal(t, PermissionDenied, ParsePermission("denied"))
	assert.Equal(t, PermissionDefault, ParsePermission("prompt"))
}
