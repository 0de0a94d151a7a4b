package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

var paymentAccountColumns = []string{"id", "stripe_account_id", "onboarding_complete", "updated_at"}

// PaymentAccountRepository is the Postgres PaymentAccountStore
type PaymentAccountRepository struct {
	db      *sqlx.DB
	builder squirrel.StatementBuilderType
	logger  *slog.Logger
}

func NewPaymentAccountRepository(db *sqlx.DB, logger *slog.Logger) *PaymentAccountRepository {
	return &PaymentAccountRepository{
		db:      db,
		builder: newBuilder(),
		logger:  logger.With(slog.String("repository", "stripe_accounts")),
	}
}

// GetPaymentAccount returns the user's account or ErrPaymentAccountNotFound
func (r *PaymentAccountRepository) GetPaymentAccount(ctx context.Context, userID string) (*domain.PaymentAccount, error) {
	query, args, err := r.builder.
		Select(paymentAccountColumns...).
		From("stripe_accounts").
		Where(squirrel.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var account domain.PaymentAccount
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&account); err != nil {
		if isNoRows(err) {
			return nil, ErrPaymentAccountNotFound
		}
		r.logger.Warn("failed query execute", slog.String("op", "get payment account"), slog.Any("error", err))
		return nil, domain.NewRepositoryError("get payment account", err)
	}

	return &account, nil
}

// UpsertPaymentAccount links userID to a processor account, keeping the onboarding flag
func (r *PaymentAccountRepository) UpsertPaymentAccount(ctx context.Context, userID, stripeAccountID string) (*domain.PaymentAccount, error) {
	query, args, err := r.builder.
		Insert("stripe_accounts").
		Columns("id", "stripe_account_id", "onboarding_complete").
		Values(userID, stripeAccountID, false).
		Suffix("ON CONFLICT (id) DO UPDATE SET stripe_account_id = EXCLUDED.stripe_account_id, updated_at = NOW()").
		Suffix("RETURNING id, stripe_account_id, onboarding_complete, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var account domain.PaymentAccount
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&account); err != nil {
		r.logger.Warn("failed query execute", slog.String("op", "upsert payment account"), slog.Any("error", err))
		return nil, domain.NewRepositoryError("upsert payment account", err)
	}

	return &account, nil
}

// SetOnboardingComplete records the processor's onboarding verdict
func (r *PaymentAccountRepository) SetOnboardingComplete(ctx context.Context, userID string, complete bool) error {
	query, args, err := r.builder.
		Update("stripe_accounts").
		Set("onboarding_complete", complete).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Warn("failed query execute", slog.String("op", "set onboarding complete"), slog.Any("error", err))
		return domain.NewRepositoryError("set onboarding complete", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPaymentAccountNotFound
	}

	r.logger.Info("Onboarding status updated",
		slog.String("user_id", userID),
		slog.Bool("onboarding_complete", complete),
	)

	return nil
}
