package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/cuongbtq/chauffer-be/internal/cache"
	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/session"
	"github.com/cuongbtq/chauffer-be/internal/storage"
)

// PaymentStatusReader gates posting on onboarding
type PaymentStatusReader interface {
	Fetch(ctx context.Context, userID string) (domain.PaymentStatus, error)
}

// Result is a successful lifecycle outcome
type Result struct {
	Job    *domain.Job `json:"job,omitempty"`
	Notice Notice      `json:"notice"`
	Demo   bool        `json:"demo,omitempty"`
}

// Options tune the service
type Options struct {
	DemoJobs bool
}

// Service drives the job state machine. Every transition is a single conditional write.
type Service struct {
	store    storage.JobStore
	cache    cache.Invalidator
	payments PaymentStatusReader
	opts     Options
	logger   *slog.Logger
}

func NewService(store storage.JobStore, invalidator cache.Invalidator, payments PaymentStatusReader, opts Options, logger *slog.Logger) *Service {
	if invalidator == nil {
		invalidator = cache.Noop{}
	}
	return &Service{
		store:    store,
		cache:    invalidator,
		payments: payments,
		opts:     opts,
		logger:   logger.With(slog.String("component", "lifecycle")),
	}
}

// Available lists open jobs, hiding the viewer's own postings. sess may be nil.
func (s *Service) Available(ctx context.Context, sess *session.Session) ([]domain.Job, error) {
	viewer := ""
	if sess != nil {
		viewer = sess.UserID()
	}

	jobs, err := s.store.ListAvailable(ctx, viewer)
	if err != nil {
		return nil, err
	}

	if s.opts.DemoJobs {
		jobs = append(jobs, DemoJobs()...)
	}

	return jobs, nil
}

// Posted lists the jobs the signed-in user posted
func (s *Service) Posted(ctx context.Context, sess *session.Session) ([]domain.Job, error) {
	if sess == nil {
		return nil, domain.ErrAuthRequired
	}
	return s.store.ListPostedBy(ctx, sess.UserID())
}

// Claimed lists the jobs the signed-in user claimed
func (s *Service) Claimed(ctx context.Context, sess *session.Session) ([]domain.Job, error) {
	if sess == nil {
		return nil, domain.ErrAuthRequired
	}
	return s.store.ListClaimedBy(ctx, sess.UserID())
}

// Get returns one job; demo ids resolve to fixtures without touching the store
func (s *Service) Get(ctx context.Context, id string) (*domain.Job, error) {
	if domain.IsDemoJobID(id) {
		if job, ok := DemoJob(id); ok && s.opts.DemoJobs {
			return job, nil
		}
		return nil, domain.ErrJobNotFound
	}
	return s.store.Get(ctx, id)
}

// Claim assigns an available job to the signed-in user
func (s *Service) Claim(ctx context.Context, sess *session.Session, jobID string) (*Result, error) {
	if sess == nil {
		return nil, fail(domain.ErrAuthRequired, noticeSignIn)
	}

	if domain.IsDemoJobID(jobID) {
		s.logger.Info("Claim on demo job ignored",
			slog.String("job_id", jobID),
			slog.String("user_id", sess.UserID()),
		)
		return &Result{Notice: noticeDemo, Demo: true}, nil
	}

	userID := sess.UserID()
	return s.transition(ctx, domain.ActionClaim, userID, jobID, &userID, nil, noticeClaimed, claimFailure)
}

// Start moves a claimed job into progress
func (s *Service) Start(ctx context.Context, sess *session.Session, jobID string) (*Result, error) {
	if err := s.guard(sess, jobID); err != nil {
		return nil, err
	}
	return s.transition(ctx, domain.ActionStart, sess.UserID(), jobID, nil, nil, noticeStarted, fixed(noticeStartFailed))
}

// Complete finishes a job in progress
func (s *Service) Complete(ctx context.Context, sess *session.Session, jobID string) (*Result, error) {
	if err := s.guard(sess, jobID); err != nil {
		return nil, err
	}
	return s.transition(ctx, domain.ActionComplete, sess.UserID(), jobID, nil, nil, noticeCompleted, fixed(noticeCompleteFailed))
}

// Cancel terminates a claimed job. reason must not be blank.
func (s *Service) Cancel(ctx context.Context, sess *session.Session, jobID, reason string) (*Result, error) {
	if err := s.guard(sess, jobID); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fail(domain.NewValidationError("cancel reason is required", "reason"), noticeReasonRequired)
	}

	notes := "Cancelled: " + reason
	return s.transition(ctx, domain.ActionCancel, sess.UserID(), jobID, nil, &notes, noticeCancelled, fixed(noticeCancelFailed))
}

// Post creates a job for an onboarded user
func (s *Service) Post(ctx context.Context, sess *session.Session, in domain.NewJob) (*Result, error) {
	if sess == nil {
		return nil, fail(domain.ErrAuthRequired, noticeSignIn)
	}

	if err := in.Validate(); err != nil {
		n := noticeMissingFields
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			n.Description = vErr.Message
		}
		return nil, fail(err, n)
	}

	status, err := s.payments.Fetch(ctx, sess.UserID())
	if err != nil {
		return nil, fail(err, Notice{"Error", err.Error(), VariantDestructive})
	}
	if !status.OnboardingComplete {
		return nil, fail(domain.ErrOnboardingRequired, noticeOnboarding)
	}

	job, err := s.store.Create(ctx, sess.UserID(), in)
	if err != nil {
		s.logger.Error("Failed to post job",
			slog.String("user_id", sess.UserID()),
			slog.Any("error", err),
		)
		return nil, fail(err, Notice{"Error", err.Error(), VariantDestructive})
	}

	s.cache.InvalidateJob(ctx, job)

	return &Result{Job: job, Notice: noticePosted}, nil
}

func (s *Service) guard(sess *session.Session, jobID string) error {
	if sess == nil {
		return fail(domain.ErrAuthRequired, noticeSignIn)
	}
	if domain.IsDemoJobID(jobID) {
		return fail(domain.ErrDemoJob, noticeDemo)
	}
	return nil
}

func fixed(n Notice) func(error) Notice {
	return func(error) Notice { return n }
}

// transition reads the job to check the actor, then issues the conditional write.
// The write itself re-checks the status, so a concurrent change surfaces as ErrConflict.
func (s *Service) transition(
	ctx context.Context,
	action domain.Action,
	userID, jobID string,
	claimant, notes *string,
	success Notice,
	failure func(error) Notice,
) (*Result, error) {
	t, _ := domain.TransitionFor(action)
	logger := s.logger.With(
		slog.String("action", string(action)),
		slog.String("job_id", jobID),
		slog.String("user_id", userID),
	)

	before, err := s.store.Get(ctx, jobID)
	if err != nil {
		logger.Warn("Job lookup failed", slog.Any("error", err))
		return nil, fail(err, failure(err))
	}

	if !t.Permits(before, userID) {
		logger.Warn("Transition refused for actor")
		n := failure(domain.ErrForbidden)
		if action == domain.ActionClaim {
			n = noticeForbidden
		}
		return nil, fail(domain.ErrForbidden, n)
	}

	after, err := s.store.UpdateStatus(ctx, domain.StatusUpdate{
		JobID:      jobID,
		From:       t.From,
		To:         t.To,
		ClaimantID: claimant,
		Notes:      notes,
	})
	if err != nil {
		logger.Warn("Transition failed", slog.Any("error", err))
		return nil, fail(err, failure(err))
	}

	s.cache.InvalidateJob(ctx, before, after)

	logger.Info("Job transitioned",
		slog.String("from", string(before.Status)),
		slog.String("to", string(after.Status)),
	)

	return &Result{Job: after, Notice: success}, nil
}
