package payment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/session"
)

// Portal opens billing portal sessions for signed-in users
type Portal struct {
	processor     Processor
	setupURL      string
	defaultOrigin string
	logger        *slog.Logger
}

func NewPortal(processor Processor, setupURL, defaultOrigin string, logger *slog.Logger) *Portal {
	return &Portal{
		processor:     processor,
		setupURL:      setupURL,
		defaultOrigin: defaultOrigin,
		logger:        logger.With(slog.String("component", "stripe_customer_portal")),
	}
}

// Open returns the URL of a new billing portal session
func (p *Portal) Open(ctx context.Context, identity session.Identity, origin string) (string, error) {
	if identity.Email == "" {
		return "", &domain.PaymentSetupError{Message: "User email not found"}
	}

	p.logger.Info("Creating customer portal session", slog.String("user_id", identity.UserID))

	customerID, err := p.customer(ctx, identity)
	if err != nil {
		return "", err
	}

	returnURL := profileURL(origin, p.defaultOrigin)
	url, err := p.processor.CreatePortalSession(ctx, customerID, returnURL, "")
	if errors.Is(err, ErrPortalConfigMissing) {
		p.logger.Warn("No default portal configuration, creating one")
		configurationID, cfgErr := p.processor.CreatePortalConfiguration(ctx, returnURL)
		if cfgErr != nil {
			p.logger.Error("Failed to create portal configuration", slog.Any("error", cfgErr))
			return "", p.configMissing(cfgErr)
		}
		url, err = p.processor.CreatePortalSession(ctx, customerID, returnURL, configurationID)
		if errors.Is(err, ErrPortalConfigMissing) {
			return "", p.configMissing(err)
		}
	}
	if err != nil {
		return "", &domain.PaymentSetupError{Message: "could not create portal session", Err: err}
	}

	p.logger.Info("Customer portal session created", slog.String("customer_id", customerID))
	return url, nil
}

func (p *Portal) customer(ctx context.Context, identity session.Identity) (string, error) {
	id, found, err := p.processor.FindCustomerByEmail(ctx, identity.Email)
	if err != nil {
		return "", &domain.PaymentSetupError{Message: "could not look up customer", Err: err}
	}
	if found {
		p.logger.Debug("Found existing customer", slog.String("customer_id", id))
		return id, nil
	}

	id, err = p.processor.CreateCustomer(ctx, identity.Email, "")
	if err != nil {
		return "", &domain.PaymentSetupError{Message: "could not create customer", Err: err}
	}
	p.logger.Info("New customer created", slog.String("customer_id", id))
	return id, nil
}

func (p *Portal) configMissing(err error) error {
	return &domain.PaymentSetupError{
		Message:       "billing portal is not configured",
		ConfigMissing: true,
		SetupURL:      p.setupURL,
		Err:           err,
	}
}
