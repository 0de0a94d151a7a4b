package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTransition_Allows(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		from   JobStatus
		want   bool
	}{
		{name: "claim available", action: ActionClaim, from: JobStatusAvailable, want: true},
		{name: "claim claimed", action: ActionClaim, from: JobStatusClaimed, want: false},
		{name: "start claimed", action: ActionStart, from: JobStatusClaimed, want: true},
		{name: "start legacy active", action: ActionStart, from: JobStatusActive, want: true},
		{name: "start available", action: ActionStart, from: JobStatusAvailable, want: false},
		{name: "complete in progress", action: ActionComplete, from: JobStatusInProgress, want: true},
		{name: "complete claimed", action: ActionComplete, from: JobStatusClaimed, want: false},
		{name: "cancel claimed", action: ActionCancel, from: JobStatusClaimed, want: true},
		{name: "cancel active", action: ActionCancel, from: JobStatusActive, want: true},
		{name: "cancel completed", action: ActionCancel, from: JobStatusCompleted, want: false},
		{name: "cancel cancelled", action: ActionCancel, from: JobStatusCancelled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := TransitionFor(tt.action)
			require.True(t, ok)
			assert.Equal(t, tt.want, tr.Allows(tt.from))
		})
	}
}

func TestTransition_Permits(t *testing.T) {
	job := &Job{ID: "j1", PosterID: "poster", ClaimantID: strPtr("driver")}
	open := &Job{ID: "j2", PosterID: "poster"}

	claim, _ := TransitionFor(ActionClaim)
	start, _ := TransitionFor(ActionStart)
	cancel, _ := TransitionFor(ActionCancel)

	assert.True(t, claim.Permits(open, "driver"))
	assert.False(t, claim.Permits(open, "poster"), "poster cannot claim own job")
	assert.False(t, claim.Permits(open, ""), "anonymous cannot claim")

	assert.True(t, start.Permits(job, "driver"))
	assert.False(t, start.Permits(job, "poster"))
	assert.False(t, start.Permits(job, "stranger"))

	assert.True(t, cancel.Permits(job, "driver"))
	assert.True(t, cancel.Permits(job, "poster"))
	assert.False(t, cancel.Permits(job, "stranger"))
}

func TestJobStatus_Normalize(t *testing.T) {
	assert.Equal(t, JobStatusClaimed, JobStatusActive.Normalize())
	assert.Equal(t, JobStatusInProgress, JobStatusInProgress.Normalize())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusCancelled.IsTerminal())
	assert.False(t, JobStatusClaimed.IsTerminal())
}
