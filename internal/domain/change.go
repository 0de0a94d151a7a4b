package domain

import "time"

// ChangeKind is the row-level operation carried by a change event
type ChangeKind string

const (
	ChangeInsert ChangeKind = "INSERT"
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeDelete ChangeKind = "DELETE"
)

// JobsTable is the only table the change feed carries
const JobsTable = "jobs"

// ChangeEvent is a row-level change on the jobs table
type ChangeEvent struct {
	Kind            ChangeKind `json:"type"`
	Table           string     `json:"table"`
	New             *Job       `json:"new"`
	Old             *Job       `json:"old"`
	CommitTimestamp time.Time  `json:"commit_timestamp"`
}

// Row returns the affected row: the new image, or the old one for deletes
func (e *ChangeEvent) Row() *Job {
	if e.Kind == ChangeDelete {
		return e.Old
	}
	return e.New
}
