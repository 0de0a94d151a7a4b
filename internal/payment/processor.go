// Package payment reads payment-account status and drives the payment processor flows.
package payment

import (
	"context"
	"errors"
	"strings"
)

// DefaultOrigin is used for return links when the request carries no Origin header
const DefaultOrigin = "http://localhost:3000"

// ErrPortalConfigMissing is returned by a Processor when no default billing portal configuration exists
var ErrPortalConfigMissing = errors.New("billing portal configuration missing")

// Account is the part of a connected account the onboarding flow reads
type Account struct {
	ID string
	// CurrentlyDue is nil when the processor reported no requirements at all
	CurrentlyDue []string
}

// OnboardingComplete reports whether the processor has nothing left to collect
func (a *Account) OnboardingComplete() bool {
	return a.CurrentlyDue != nil && len(a.CurrentlyDue) == 0
}

// AccountParams describe a new connected account
type AccountParams struct {
	Country string
	Email   string
}

// Processor is the payment processor boundary
type Processor interface {
	CreateAccount(ctx context.Context, params AccountParams) (string, error)
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)

	FindCustomerByEmail(ctx context.Context, email string) (id string, found bool, err error)
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	// CreatePortalSession uses the default configuration when configurationID is empty
	CreatePortalSession(ctx context.Context, customerID, returnURL, configurationID string) (string, error)
	CreatePortalConfiguration(ctx context.Context, returnURL string) (string, error)
}

// profileURL is where the processor sends the browser back to
func profileURL(origin, fallback string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		origin = strings.TrimRight(fallback, "/")
	}
	if origin == "" {
		origin = DefaultOrigin
	}
	return origin + "/profile"
}
