package payment

import (
	"context"
	"errors"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/storage"
)

// Reader fetches a user's payment status
type Reader struct {
	store storage.PaymentAccountStore
}

func NewReader(store storage.PaymentAccountStore) *Reader {
	return &Reader{store: store}
}

// Fetch returns the user's status. A user without an account reads as {nil, false}.
func (r *Reader) Fetch(ctx context.Context, userID string) (domain.PaymentStatus, error) {
	account, err := r.store.GetPaymentAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrPaymentAccountNotFound) {
			return domain.PaymentStatus{}, nil
		}
		return domain.PaymentStatus{}, err
	}

	return domain.PaymentStatus{
		AccountRef:         account.StripeAccountID,
		OnboardingComplete: bool(account.OnboardingComplete),
	}, nil
}
