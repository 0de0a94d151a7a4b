package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob_Validate(t *testing.T) {
	payout := decimal.NewFromInt(50)
	negative := decimal.NewFromInt(-1)
	bogus := VehicleType("rocket")
	when := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		job        NewJob
		wantErr    bool
		wantFields []string
	}{
		{
			name: "all required fields",
			job:  NewJob{Pickup: "X", Dropoff: "Y", ScheduledAt: when, Payout: &payout},
		},
		{
			name:       "missing everything",
			job:        NewJob{},
			wantErr:    true,
			wantFields: []string{"pickup", "dropoff", "scheduled_at", "payout"},
		},
		{
			name:       "whitespace pickup",
			job:        NewJob{Pickup: "   ", Dropoff: "Y", ScheduledAt: when, Payout: &payout},
			wantErr:    true,
			wantFields: []string{"pickup"},
		},
		{
			name:       "negative payout",
			job:        NewJob{Pickup: "X", Dropoff: "Y", ScheduledAt: when, Payout: &negative},
			wantErr:    true,
			wantFields: []string{"payout"},
		},
		{
			name:       "unknown vehicle type",
			job:        NewJob{Pickup: "X", Dropoff: "Y", ScheduledAt: when, Payout: &payout, VehicleType: &bogus},
			wantErr:    true,
			wantFields: []string{"vehicle_type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantFields, vErr.Fields)
		})
	}
}

func TestJob_Involves(t *testing.T) {
	claimant := "b"
	job := &Job{ID: "j", PosterID: "a", ClaimantID: &claimant}

	assert.True(t, job.Involves("a"))
	assert.True(t, job.Involves("b"))
	assert.False(t, job.Involves("c"))
	assert.False(t, job.Involves(""))
}

func TestIsDemoJobID(t *testing.T) {
	assert.True(t, IsDemoJobID("dummy-1"))
	assert.False(t, IsDemoJobID("4b1e0f4e-1a7f-4f5e-8a6e-1b0d8c1f2a3b"))
}

func TestChangeEvent_Row(t *testing.T) {
	newRow := &Job{ID: "new"}
	oldRow := &Job{ID: "old"}

	assert.Equal(t, newRow, (&ChangeEvent{Kind: ChangeUpdate, New: newRow, Old: oldRow}).Row())
	assert.Equal(t, newRow, (&ChangeEvent{Kind: ChangeInsert, New: newRow}).Row())
	assert.Equal(t, oldRow, (&ChangeEvent{Kind: ChangeDelete, Old: oldRow}).Row())
}
