package domain

import (
	"errors"
	"strings"
)

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrConflict is returned when a conditional update finds the job in an unexpected status
	ErrConflict = errors.New("job status changed before the update was applied")

	// ErrAuthRequired is returned when an action needs a signed-in user
	ErrAuthRequired = errors.New("sign in required")

	// ErrForbidden is returned when the user is not an allowed actor for the transition
	ErrForbidden = errors.New("action not permitted for this user")

	// ErrOnboardingRequired is returned when posting before payment onboarding is complete
	ErrOnboardingRequired = errors.New("payment onboarding required")

	// ErrDemoJob is returned when a write is attempted on a demo fixture
	ErrDemoJob = errors.New("demo job is read-only")

	// ErrProfileNotFound is returned when the user has never saved a profile
	ErrProfileNotFound = errors.New("profile not found")
)

// ValidationError reports missing or invalid input, raised before any network call
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}
	return "validation failed: " + e.Message + " (" + strings.Join(e.Fields, ", ") + ")"
}

// NewValidationError creates a new validation error
func NewValidationError(message string, fields ...string) error {
	return &ValidationError{Message: message, Fields: fields}
}

// RepositoryError wraps a backend read/write failure; its message is the backend's
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return e.Err.Error()
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new repository error
func NewRepositoryError(op string, err error) error {
	return &RepositoryError{Op: op, Err: err}
}

// PaymentSetupError reports a failed payment processor call
type PaymentSetupError struct {
	Message string
	// ConfigMissing is set when the billing portal has no configuration and one could not be created
	ConfigMissing bool
	SetupURL      string
	Err           error
}

func (e *PaymentSetupError) Error() string {
	if e.Err != nil {
		return "payment setup failed: " + e.Message + ": " + e.Err.Error()
	}
	return "payment setup failed: " + e.Message
}

func (e *PaymentSetupError) Unwrap() error {
	return e.Err
}
