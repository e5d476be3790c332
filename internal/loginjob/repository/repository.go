package repository

import (
	"context"
	"time"

	"account-console/internal/loginjob/domain"
)

// Repository defines persistence for login jobs.
type Repository interface {
	Create(ctx context.Context, j *domain.Job) error
	// UpdateStatus sets status and error of job id. finishedAt is stored as given (nil clears it).
	// Returns false if no job with id exists.
	UpdateStatus(ctx context.Context, id, status, errText string, finishedAt *time.Time) (bool, error)
	// LatestByAccount returns the most recently started job of the account, or nil.
	LatestByAccount(ctx context.Context, accountID int64) (*domain.Job, error)
	// FailActive marks every running or waiting job failed with reason. Returns the number of jobs changed.
	FailActive(ctx context.Context, reason string, at time.Time) (int64, error)
}
