package domain

// JobStatus is the lifecycle state of a job
type JobStatus string

// Job status values
const (
	JobStatusAvailable  JobStatus = "available"
	JobStatusClaimed    JobStatus = "claimed"
	JobStatusActive     JobStatus = "active" // legacy rows; same meaning as claimed
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Normalize folds legacy aliases into their canonical status
func (s JobStatus) Normalize() JobStatus {
	if s == JobStatusActive {
		return JobStatusClaimed
	}
	return s
}

// IsTerminal reports whether no further transition is possible
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// Action is a user-triggered lifecycle step
type Action string

const (
	ActionClaim    Action = "claim"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// Actor is who may perform an action
type Actor int

const (
	ActorNonPoster Actor = iota
	ActorClaimant
	ActorPosterOrClaimant
)

// Transition describes one edge of the job state machine
type Transition struct {
	Action Action
	From   []JobStatus
	To     JobStatus
	Actor  Actor
}

var transitions = map[Action]Transition{
	ActionClaim: {
		Action: ActionClaim,
		From:   []JobStatus{JobStatusAvailable},
		To:     JobStatusClaimed,
		Actor:  ActorNonPoster,
	},
	ActionStart: {
		Action: ActionStart,
		From:   []JobStatus{JobStatusClaimed, JobStatusActive},
		To:     JobStatusInProgress,
		Actor:  ActorClaimant,
	},
	ActionComplete: {
		Action: ActionComplete,
		From:   []JobStatus{JobStatusInProgress},
		To:     JobStatusCompleted,
		Actor:  ActorClaimant,
	},
	ActionCancel: {
		Action: ActionCancel,
		From:   []JobStatus{JobStatusClaimed, JobStatusActive},
		To:     JobStatusCancelled,
		Actor:  ActorPosterOrClaimant,
	},
}

// TransitionFor returns the state machine edge for an action
func TransitionFor(a Action) (Transition, bool) {
	t, ok := transitions[a]
	return t, ok
}

// Allows reports whether the transition may start from status s
func (t Transition) Allows(s JobStatus) bool {
	for _, from := range t.From {
		if from == s {
			return true
		}
	}
	return false
}

// Permits reports whether userID may perform the transition on job
func (t Transition) Permits(job *Job, userID string) bool {
	switch t.Actor {
	case ActorNonPoster:
		return userID != "" && !job.PostedBy(userID)
	case ActorClaimant:
		return job.ClaimedBy(userID)
	case ActorPosterOrClaimant:
		return job.Involves(userID)
	}
	return false
}

// StatusUpdate is a conditional write: it applies only while the row is in one of From
type StatusUpdate struct {
	JobID      string
	From       []JobStatus
	To         JobStatus
	ClaimantID *string
	Notes      *string
}
