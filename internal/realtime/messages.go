package realtime

import "github.com/cuongbtq/chauffer-be/internal/domain"

// NotificationTitle is the title of every job update notification
const NotificationTitle = "Job Update"

// MessageFor maps a job status to the notification body
func MessageFor(status domain.JobStatus) string {
	switch status.Normalize() {
	case domain.JobStatusInProgress:
		return "Your job is now in progress."
	case domain.JobStatusCompleted:
		return "A job has been completed!"
	case domain.JobStatusCancelled:
		return "A job was cancelled."
	case domain.JobStatusClaimed:
		return "A job has been claimed!"
	default:
		return "There's an update to one of your jobs."
	}
}

// SubscriptionName is the per-user change feed subscription name
func SubscriptionName(userID string) string {
	return "realtime:public:jobs:notifications:" + userID
}

// Permission is the browser's system notification permission
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ParsePermission maps unknown values to PermissionDefault
func ParsePermission(s string) Permission {
	switch Permission(s) {
	case PermissionGranted, PermissionDenied:
		return Permission(s)
	}
	return PermissionDefault
}

// Notification is a job update shown to a user
type Notification struct {
	Title  string           `json:"title"`
	Body   string           `json:"body"`
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

// Notifier delivers notifications to a user's open clients
type Notifier interface {
	Toast(userID string, n Notification)
	RequestPermission(userID string)
	SystemNotify(userID string, n Notification)
}
