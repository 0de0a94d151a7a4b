package payment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/session"
	"github.com/cuongbtq/chauffer-be/internal/storage"
)

// OnboardingResult is returned to the browser after an onboarding request
type OnboardingResult struct {
	StripeAccountID    string `json:"stripe_account_id"`
	OnboardingComplete bool   `json:"onboarding_complete"`
	OnboardingURL      string `json:"onboarding_url"`
}

// Onboarder links users to connected accounts and hands out onboarding links
type Onboarder struct {
	store         storage.PaymentAccountStore
	processor     Processor
	country       string
	defaultOrigin string
	logger        *slog.Logger
}

func NewOnboarder(store storage.PaymentAccountStore, processor Processor, country, defaultOrigin string, logger *slog.Logger) *Onboarder {
	if country == "" {
		country = "SE"
	}
	return &Onboarder{
		store:         store,
		processor:     processor,
		country:       country,
		defaultOrigin: defaultOrigin,
		logger:        logger.With(slog.String("component", "stripe_onboard")),
	}
}

// Onboard reuses or creates the user's account, then returns a fresh onboarding link
// and the current onboarding state. Calling it again is safe.
func (o *Onboarder) Onboard(ctx context.Context, identity session.Identity, origin string) (*OnboardingResult, error) {
	existing, err := o.store.GetPaymentAccount(ctx, identity.UserID)
	if err != nil && !errors.Is(err, storage.ErrPaymentAccountNotFound) {
		return nil, err
	}

	var accountID string
	if existing != nil && existing.StripeAccountID != nil && *existing.StripeAccountID != "" {
		accountID = *existing.StripeAccountID
		o.logger.Info("Stripe account exists",
			slog.String("user_id", identity.UserID),
			slog.String("stripe_account_id", accountID),
		)
	} else {
		accountID, err = o.processor.CreateAccount(ctx, AccountParams{Country: o.country, Email: identity.Email})
		if err != nil {
			return nil, &domain.PaymentSetupError{Message: "could not create payment account", Err: err}
		}

		if _, err := o.store.UpsertPaymentAccount(ctx, identity.UserID, accountID); err != nil {
			o.logger.Error("Failed to save payment account",
				slog.String("user_id", identity.UserID),
				slog.Any("error", err),
			)
		}
		o.logger.Info("Created Stripe Connect Express account",
			slog.String("user_id", identity.UserID),
			slog.String("stripe_account_id", accountID),
		)
	}

	returnURL := profileURL(origin, o.defaultOrigin)
	link, err := o.processor.CreateOnboardingLink(ctx, accountID, returnURL, returnURL)
	if err != nil {
		return nil, &domain.PaymentSetupError{Message: "could not create onboarding link", Err: err}
	}

	account, err := o.processor.GetAccount(ctx, accountID)
	if err != nil {
		return nil, &domain.PaymentSetupError{Message: "could not retrieve payment account", Err: err}
	}
	complete := account.OnboardingComplete()

	previous := existing != nil && bool(existing.OnboardingComplete)
	if existing == nil || previous != complete {
		if err := o.store.SetOnboardingComplete(ctx, identity.UserID, complete); err != nil {
			o.logger.Error("Failed to update onboarding status",
				slog.String("user_id", identity.UserID),
				slog.Any("error", err),
			)
		}
	}

	return &OnboardingResult{
		StripeAccountID:    accountID,
		OnboardingComplete: complete,
		OnboardingURL:      link,
	}, nil
}
