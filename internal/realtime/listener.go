package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cuongbtq/chauffer-be/internal/changefeed"
	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/session"
)

// activeSubscription is shared by every client the user has open. sub is nil until the feed
// has answered.
type activeSubscription struct {
	owners map[string]struct{}
	sub    changefeed.Subscription
}

// userState lives as long as the session it belongs to
type userState struct {
	sessionID  string
	seen       map[string]struct{}
	unread     bool
	permission Permission
}

// Listener turns job change events into per-user notifications.
// A user has at most one subscription; it stays open while any client that joined it remains.
type Listener struct {
	feed     changefeed.Feed
	notifier Notifier
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	subs  map[string]*activeSubscription
	state map[string]*userState
}

func NewListener(feed changefeed.Feed, notifier Notifier, logger *slog.Logger) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		feed:     feed,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "realtime_listener")),
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[string]*activeSubscription),
		state:    make(map[string]*userState),
	}
}

// Subscribe opens the user's subscription, or joins owner to the one already open.
// The feed is contacted outside the lock.
func (l *Listener) Subscribe(sess *session.Session, owner string) error {
	if sess == nil {
		return domain.ErrAuthRequired
	}
	userID := sess.UserID()

	l.mu.Lock()
	l.stateFor(sess)
	if active, ok := l.subs[userID]; ok {
		active.owners[owner] = struct{}{}
		l.mu.Unlock()
		return nil
	}
	active := &activeSubscription{owners: map[string]struct{}{owner: {}}}
	l.subs[userID] = active
	l.mu.Unlock()

	sub, err := l.feed.Subscribe(l.ctx, SubscriptionName(userID))

	l.mu.Lock()
	current := l.subs[userID] == active
	if err != nil {
		if current {
			delete(l.subs, userID)
		}
		l.mu.Unlock()
		l.logger.Error("Failed to subscribe to job changes",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return fmt.Errorf("subscribe to job changes: %w", err)
	}
	if !current {
		// every owner left or the session ended while the feed answered
		l.mu.Unlock()
		l.closeSubscription(userID, sub)
		return nil
	}
	active.sub = sub
	l.mu.Unlock()

	l.logger.Info("Subscribed to job changes",
		slog.String("user_id", userID),
		slog.String("owner", owner),
	)

	go l.consume(userID, active, sub)

	return nil
}

// stateFor returns the user's state, resetting it when a new session starts. Caller holds mu.
func (l *Listener) stateFor(sess *session.Session) *userState {
	st, ok := l.state[sess.UserID()]
	if !ok || st.sessionID != sess.ID {
		st = &userState{
			sessionID:  sess.ID,
			seen:       make(map[string]struct{}),
			permission: PermissionDefault,
		}
		l.state[sess.UserID()] = st
	}
	return st
}

func (l *Listener) consume(userID string, active *activeSubscription, sub changefeed.Subscription) {
	for ev := range sub.Events() {
		l.handle(userID, ev)
	}

	l.mu.Lock()
	if l.subs[userID] == active {
		delete(l.subs, userID)
	}
	l.mu.Unlock()
}

func (l *Listener) handle(userID string, ev domain.ChangeEvent) {
	row := ev.Row()
	if row == nil || !row.Involves(userID) {
		return
	}

	l.mu.Lock()
	st, ok := l.state[userID]
	if !ok {
		l.mu.Unlock()
		return
	}
	if _, dup := st.seen[row.ID]; dup {
		l.mu.Unlock()
		return
	}
	st.seen[row.ID] = struct{}{}
	st.unread = true
	permission := st.permission
	l.mu.Unlock()

	n := Notification{
		Title:  NotificationTitle,
		Body:   MessageFor(row.Status),
		JobID:  row.ID,
		Status: row.Status,
	}

	l.logger.Debug("Job update for user",
		slog.String("user_id", userID),
		slog.String("job_id", row.ID),
		slog.String("status", string(row.Status)),
	)

	l.notifier.Toast(userID, n)

	switch permission {
	case PermissionDefault:
		l.notifier.RequestPermission(userID)
	case PermissionGranted:
		l.notifier.SystemNotify(userID, n)
	}
}

// Unsubscribe removes owner from the user's subscription and closes it once no owner is left
func (l *Listener) Unsubscribe(userID, owner string) {
	l.mu.Lock()
	active, ok := l.subs[userID]
	if !ok {
		l.mu.Unlock()
		return
	}
	if _, joined := active.owners[owner]; !joined {
		l.mu.Unlock()
		return
	}
	delete(active.owners, owner)
	if len(active.owners) > 0 {
		remaining := len(active.owners)
		l.mu.Unlock()
		l.logger.Debug("Client left shared subscription",
			slog.String("user_id", userID),
			slog.String("owner", owner),
			slog.Int("remaining", remaining),
		)
		return
	}
	delete(l.subs, userID)
	sub := active.sub
	l.mu.Unlock()

	l.closeSubscription(userID, sub)
}

// HandleSession tears down everything the user had when their session ends
func (l *Listener) HandleSession(ev session.Event) {
	if ev.Transition != session.SignedOut {
		return
	}
	userID := ev.Session.UserID()

	l.mu.Lock()
	var sub changefeed.Subscription
	if active, ok := l.subs[userID]; ok {
		sub = active.sub
	}
	delete(l.subs, userID)
	delete(l.state, userID)
	l.mu.Unlock()

	l.closeSubscription(userID, sub)
}

// closeSubscription closes sub; a nil sub is still pending and is closed by Subscribe
func (l *Listener) closeSubscription(userID string, sub changefeed.Subscription) {
	if sub == nil {
		return
	}
	if err := sub.Close(); err != nil {
		l.logger.Warn("Failed to close subscription",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return
	}
	l.logger.Info("Unsubscribed from job changes", slog.String("user_id", userID))
}

// HasUnread reports whether a relevant update arrived since the last MarkAsRead
func (l *Listener) HasUnread(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.state[userID]
	return ok && st.unread
}

// MarkAsRead clears the unread flag
func (l *Listener) MarkAsRead(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.state[userID]; ok {
		st.unread = false
	}
}

// SetPermission records the browser's notification permission decision
func (l *Listener) SetPermission(userID string, p Permission) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.state[userID]; ok {
		st.permission = p
	}
}

// Active reports whether the user currently has an open subscription
func (l *Listener) Active(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	active, ok := l.subs[userID]
	return ok && active.sub != nil
}

// Close ends every subscription
func (l *Listener) Close() {
	l.cancel()

	l.mu.Lock()
	subs := make(map[string]changefeed.Subscription, len(l.subs))
	for userID, active := range l.subs {
		subs[userID] = active.sub
	}
	l.subs = make(map[string]*activeSubscription)
	l.mu.Unlock()

	for userID, sub := range subs {
		l.closeSubscription(userID, sub)
	}
}
