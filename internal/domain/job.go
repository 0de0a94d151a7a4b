package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DemoJobPrefix marks read-only sample jobs that are never written back to the store
const DemoJobPrefix = "dummy-"

// VehicleType is the optional vehicle tag of a job
type VehicleType string

const (
	VehicleStandard VehicleType = "standard"
	VehicleLuxury   VehicleType = "luxury"
	VehicleSUV      VehicleType = "suv"
	VehicleVan      VehicleType = "van"
)

// Valid reports whether v is one of the known vehicle types
func (v VehicleType) Valid() bool {
	switch v {
	case VehicleStandard, VehicleLuxury, VehicleSUV, VehicleVan:
		return true
	}
	return false
}

// Job is a transportation request posted by a chauffeur
type Job struct {
	ID          string          `db:"id" json:"id"`
	Pickup      string          `db:"pickup" json:"pickup"`
	Dropoff     string          `db:"dropoff" json:"dropoff"`
	ScheduledAt time.Time       `db:"scheduled_at" json:"scheduled_at"`
	Payout      decimal.Decimal `db:"payout" json:"payout"`
	VehicleType *VehicleType    `db:"vehicle_type" json:"vehicle_type"`
	Notes       *string         `db:"notes" json:"notes"`
	PosterID    string          `db:"poster_id" json:"poster_id"`
	ClaimantID  *string         `db:"claimant_id" json:"claimant_id"`
	Status      JobStatus       `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// IsDemo reports whether the job is a sample fixture
func (j *Job) IsDemo() bool {
	return IsDemoJobID(j.ID)
}

// IsDemoJobID reports whether id carries the reserved demo prefix
func IsDemoJobID(id string) bool {
	return strings.HasPrefix(id, DemoJobPrefix)
}

// PostedBy reports whether userID owns the job
func (j *Job) PostedBy(userID string) bool {
	return userID != "" && j.PosterID == userID
}

// ClaimedBy reports whether userID is the job's claimant
func (j *Job) ClaimedBy(userID string) bool {
	return userID != "" && j.ClaimantID != nil && *j.ClaimantID == userID
}

// Involves reports whether userID is the poster or the claimant
func (j *Job) Involves(userID string) bool {
	return j.PostedBy(userID) || j.ClaimedBy(userID)
}

// NewJob holds the fields a poster supplies when creating a job
type NewJob struct {
	Pickup      string
	Dropoff     string
	ScheduledAt time.Time
	Payout      *decimal.Decimal
	VehicleType *VehicleType
	Notes       *string
}

// Validate checks required fields before any write is attempted
func (n *NewJob) Validate() error {
	var missing []string
	if strings.TrimSpace(n.Pickup) == "" {
		missing = append(missing, "pickup")
	}
	if strings.TrimSpace(n.Dropoff) == "" {
		missing = append(missing, "dropoff")
	}
	if n.ScheduledAt.IsZero() {
		missing = append(missing, "scheduled_at")
	}
	if n.Payout == nil {
		missing = append(missing, "payout")
	}
	if len(missing) > 0 {
		return NewValidationError("Please fill in all required fields", missing...)
	}

	if n.Payout.IsNegative() {
		return NewValidationError("Payout must not be negative", "payout")
	}
	if n.VehicleType != nil && !n.VehicleType.Valid() {
		return NewValidationError("Unknown vehicle type", "vehicle_type")
	}

	return nil
}
