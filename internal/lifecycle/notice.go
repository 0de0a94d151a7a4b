package lifecycle

import (
	"errors"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

// Variant selects how the front end renders a notice
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is the user-facing toast attached to every lifecycle outcome
type Notice struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

var (
	noticeClaimed   = Notice{"Job Claimed!", "You've successfully claimed this job.", VariantDefault}
	noticeStarted   = Notice{"Job Started", "You have started the job. Safe driving!", VariantDefault}
	noticeCompleted = Notice{"Job Completed", "Job completed successfully! Payment will be processed shortly.", VariantDefault}
	noticeCancelled = Notice{"Job Cancelled", "The job has been cancelled and the poster has been notified.", VariantDefault}
	noticePosted    = Notice{"Job Posted!", "Your job has been posted and is now visible to other chauffeurs", VariantDefault}
	noticeDemo      = Notice{"Demo Job", "This is demo data. Please post a real job to test the claiming feature.", VariantDefault}

	noticeStartFailed    = Notice{"Failed to Start", "Something went wrong starting your job. Try again.", VariantDestructive}
	noticeCompleteFailed = Notice{"Failed to Complete", "Something went wrong completing this job.", VariantDestructive}
	noticeCancelFailed   = Notice{"Failed to Cancel", "Something went wrong cancelling this job.", VariantDestructive}
	noticeReasonRequired = Notice{"Cancel Reason Required", "Please provide a reason for cancelling the job.", VariantDestructive}
	noticeMissingFields  = Notice{"Missing Information", "Please fill in all required fields", VariantDestructive}
	noticeSignIn         = Notice{"Sign In Required", "Please sign in to continue.", VariantDestructive}
	noticeOnboarding     = Notice{"Payment Setup Required", "Connect your Stripe account before posting jobs.", VariantDestructive}
	noticeForbidden      = Notice{"Not Allowed", "You can't perform this action on this job.", VariantDestructive}
)

// Error carries the notice shown when an operation fails. The job is unchanged.
type Error struct {
	Err    error
	Notice Notice
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(err error, n Notice) error {
	return &Error{Err: err, Notice: n}
}

// NoticeFor returns the notice attached to err, if any
func NoticeFor(err error) (Notice, bool) {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Notice, true
	}
	return Notice{}, false
}

// claimFailure mirrors the claim toast: the backend's message, or a generic fallback
func claimFailure(err error) Notice {
	n := Notice{Title: "Error", Description: "Could not claim job", Variant: VariantDestructive}
	var repoErr *domain.RepositoryError
	if errors.As(err, &repoErr) && repoErr.Error() != "" {
		n.Description = repoErr.Error()
	}
	return n
}
