package domain

import "time"

// Job statuses stored in login_jobs.status.
const (
	StatusRunning        = "running"
	StatusWaitingForUser = "waiting_for_user"
	StatusCompleted      = "completed"
	StatusFailed         = "failed"
)

// Job is one browser login session for an account.
type Job struct {
	ID         string
	AccountID  int64
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Active reports whether the job still holds the browser session.
func (j *Job) Active() bool {
	return j != nil && (j.Status == StatusRunning || j.Status == StatusWaitingForUser)
}

// IsTerminal reports whether status ends a job.
func IsTerminal(status string) bool {
	return status != StatusRunning && status != StatusWaitingForUser
}
