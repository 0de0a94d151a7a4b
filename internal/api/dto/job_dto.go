package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

type PostJobRequest struct {
	Pickup      string           `json:"pickup" binding:"required"`
	Dropoff     string           `json:"dropoff" binding:"required"`
	ScheduledAt time.Time        `json:"scheduled_at" binding:"required"`
	Payout      *decimal.Decimal `json:"payout" binding:"required"`
	VehicleType *string          `json:"vehicle_type" binding:"omitempty,vehicle_type"`
	Notes       *string          `json:"notes" binding:"omitempty,max=2000"`
}

// ToNewJob converts the request into the lifecycle input
func (r *PostJobRequest) ToNewJob() domain.NewJob {
	in := domain.NewJob{
		Pickup:      r.Pickup,
		Dropoff:     r.Dropoff,
		ScheduledAt: r.ScheduledAt,
		Payout:      r.Payout,
		Notes:       r.Notes,
	}
	if r.VehicleType != nil && *r.VehicleType != "" {
		vt := domain.VehicleType(*r.VehicleType)
		in.VehicleType = &vt
	}
	return in
}

// CancelJobRequest carries the reason; a blank reason is rejected by the lifecycle
type CancelJobRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type ListJobsResponse struct {
	Jobs []domain.Job `json:"jobs"`
}

type JobResponse struct {
	Job *domain.Job `json:"job"`
}

type NotificationsResponse struct {
	HasUnread  bool `json:"has_unread"`
	Subscribed bool `json:"subscribed"`
}

type PortalResponse struct {
	URL string `json:"url"`
}
