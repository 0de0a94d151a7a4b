// Package stripeclient implements payment.Processor on top of the Stripe API.
package stripeclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/cuongbtq/chauffer-be/internal/payment"
)

// Config holds the API key and breaker settings
type Config struct {
	SecretKey        string
	BreakerTimeout   time.Duration
	BreakerInterval  time.Duration
	BreakerMaxProbes uint32

	// Backends overrides the HTTP backends, for tests
	Backends *stripe.Backends
}

// Client calls Stripe through a circuit breaker
type Client struct {
	api     *client.API
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ payment.Processor = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.BreakerInterval <= 0 {
		cfg.BreakerInterval = 60 * time.Second
	}
	if cfg.BreakerMaxProbes == 0 {
		cfg.BreakerMaxProbes = 1
	}

	logger = logger.With(slog.String("component", "stripe_client"))

	api := &client.API{}
	api.Init(cfg.SecretKey, cfg.Backends)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: cfg.BreakerMaxProbes,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Client{api: api, breaker: breaker, logger: logger}
}

// isSuccessful keeps client errors from tripping the breaker; only outages count
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < http.StatusInternalServerError
	}
	return false
}

func isPortalConfigMissing(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	return stripeErr.Type == stripe.ErrorTypeInvalidRequest &&
		strings.Contains(strings.ToLower(stripeErr.Msg), "default configuration")
}

func (c *Client) execute(op string, fn func() (any, error)) (any, error) {
	res, err := c.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("Stripe call rejected by circuit breaker", slog.String("op", op))
	}
	return res, err
}

func (c *Client) CreateAccount(ctx context.Context, p payment.AccountParams) (string, error) {
	params := &stripe.AccountParams{
		Country:      stripe.String(p.Country),
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		BusinessType: stripe.String(string(stripe.AccountBusinessTypeIndividual)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	if p.Email != "" {
		params.Email = stripe.String(p.Email)
	}
	params.Context = ctx

	res, err := c.execute("create account", func() (any, error) {
		return c.api.Accounts.New(params)
	})
	if err != nil {
		return "", err
	}
	return res.(*stripe.Account).ID, nil
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (*payment.Account, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	res, err := c.execute("get account", func() (any, error) {
		return c.api.Accounts.GetByID(accountID, params)
	})
	if err != nil {
		return nil, err
	}

	acct := res.(*stripe.Account)
	account := &payment.Account{ID: acct.ID}
	if acct.Requirements != nil {
		account.CurrentlyDue = acct.Requirements.CurrentlyDue
		if account.CurrentlyDue == nil {
			account.CurrentlyDue = []string{}
		}
	}
	return account, nil
}

func (c *Client) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	res, err := c.execute("create account link", func() (any, error) {
		return c.api.AccountLinks.New(params)
	})
	if err != nil {
		return "", err
	}
	return res.(*stripe.AccountLink).URL, nil
}

func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (string, bool, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)
	params.Context = ctx

	res, err := c.execute("list customers", func() (any, error) {
		iter := c.api.Customers.List(params)
		if iter.Next() {
			return iter.Customer().ID, nil
		}
		return "", iter.Err()
	})
	if err != nil {
		return "", false, err
	}
	id := res.(string)
	return id, id != "", nil
}

func (c *Client) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Context = ctx

	res, err := c.execute("create customer", func() (any, error) {
		return c.api.Customers.New(params)
	})
	if err != nil {
		return "", err
	}
	return res.(*stripe.Customer).ID, nil
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL, configurationID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	if configurationID != "" {
		params.Configuration = stripe.String(configurationID)
	}
	params.Context = ctx

	res, err := c.execute("create portal session", func() (any, error) {
		return c.api.BillingPortalSessions.New(params)
	})
	if err != nil {
		if isPortalConfigMissing(err) {
			return "", errors.Join(payment.ErrPortalConfigMissing, err)
		}
		return "", err
	}
	return res.(*stripe.BillingPortalSession).URL, nil
}

// CreatePortalConfiguration saves a minimal configuration: invoice history and payment method updates
func (c *Client) CreatePortalConfiguration(ctx context.Context, returnURL string) (string, error) {
	params := &stripe.BillingPortalConfigurationParams{
		BusinessProfile: &stripe.BillingPortalConfigurationBusinessProfileParams{
			Headline: stripe.String("Manage your payment details"),
		},
		DefaultReturnURL: stripe.String(returnURL),
		Features: &stripe.BillingPortalConfigurationFeaturesParams{
			InvoiceHistory: &stripe.BillingPortalConfigurationFeaturesInvoiceHistoryParams{
				Enabled: stripe.Bool(true),
			},
			PaymentMethodUpdate: &stripe.BillingPortalConfigurationFeaturesPaymentMethodUpdateParams{
				Enabled: stripe.Bool(true),
			},
		},
	}
	params.Context = ctx

	res, err := c.execute("create portal configuration", func() (any, error) {
		return c.api.BillingPortalConfigurations.New(params)
	})
	if err != nil {
		return "", err
	}
	return res.(*stripe.BillingPortalConfiguration).ID, nil
}
