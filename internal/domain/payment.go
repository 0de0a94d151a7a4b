package domain

import (
	"bytes"
	"time"
)

// OnboardingFlag is read permissively: boolean true and the string "true" both mean complete
type OnboardingFlag bool

// Scan implements sql.Scanner
func (f *OnboardingFlag) Scan(src any) error {
	*f = OnboardingFlag(IsOnboardingComplete(src))
	return nil
}

// UnmarshalJSON accepts true and "true"; anything else is incomplete
func (f *OnboardingFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = OnboardingFlag(bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte(`"true"`)))
	return nil
}

// IsOnboardingComplete interprets an upstream onboarding_complete value
func IsOnboardingComplete(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true"
	case []byte:
		return string(val) == "true"
	case OnboardingFlag:
		return bool(val)
	}
	return false
}

// PaymentAccount is the one-per-user link to the payment processor
type PaymentAccount struct {
	UserID             string         `db:"id"`
	StripeAccountID    *string        `db:"stripe_account_id"`
	OnboardingComplete OnboardingFlag `db:"onboarding_complete"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// PaymentStatus is what consumers read to gate job posting
type PaymentStatus struct {
	AccountRef         *string `json:"stripe_account_id,omitempty"`
	OnboardingComplete bool    `json:"onboarding_complete"`
}
