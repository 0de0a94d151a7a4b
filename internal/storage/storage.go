package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

// JobStore is the job repository the lifecycle and list views depend on
type JobStore interface {
	ListAvailable(ctx context.Context, excludePoster string) ([]domain.Job, error)
	ListPostedBy(ctx context.Context, userID string) ([]domain.Job, error)
	ListClaimedBy(ctx context.Context, userID string) ([]domain.Job, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
	Create(ctx context.Context, posterID string, job domain.NewJob) (*domain.Job, error)
	UpdateStatus(ctx context.Context, update domain.StatusUpdate) (*domain.Job, error)
}

// PaymentAccountStore persists the per-user payment processor link
type PaymentAccountStore interface {
	GetPaymentAccount(ctx context.Context, userID string) (*domain.PaymentAccount, error)
	UpsertPaymentAccount(ctx context.Context, userID, stripeAccountID string) (*domain.PaymentAccount, error)
	SetOnboardingComplete(ctx context.Context, userID string, complete bool) error
}

// ProfileStore persists the per-user profile
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error)
}

// ErrPaymentAccountNotFound is returned when a user has never started onboarding
var ErrPaymentAccountNotFound = errors.New("payment account not found")

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func pgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isConstraintViolation reports whether the database rejected a row on a CHECK or NOT NULL rule
func isConstraintViolation(err error) bool {
	switch pgCode(err) {
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.InvalidTextRepresentation:
		return true
	}
	return false
}
