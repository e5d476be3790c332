package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"account-console/internal/db"
	"account-console/internal/loginjob/domain"
)

// SQLRepository stores login jobs in Postgres or SQLite.
type SQLRepository struct {
	db *db.DB
}

// NewSQLRepository returns a login job repository that uses the given db for persistence.
func NewSQLRepository(conn *db.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

// Create persists j. The job must have ID set.
func (r *SQLRepository) Create(ctx context.Context, j *domain.Job) error {
	q := r.db.Rebind(`INSERT INTO login_jobs (id, account_id, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q, j.ID, j.AccountID, j.Status, nullString(j.Error),
		r.db.TimeArg(j.StartedAt), r.db.NullTimeArg(j.FinishedAt))
	return err
}

// UpdateStatus updates the job identified by id.
func (r *SQLRepository) UpdateStatus(ctx context.Context, id, status, errText string, finishedAt *time.Time) (bool, error) {
	q := r.db.Rebind("UPDATE login_jobs SET status = ?, error = ?, finished_at = ? WHERE id = ?")
	res, err := r.db.ExecContext(ctx, q, status, nullString(errText), r.db.NullTimeArg(finishedAt), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LatestByAccount returns the newest job of the account, or nil if it has none.
// It returns an error only for database failures, not for missing rows.
func (r *SQLRepository) LatestByAccount(ctx context.Context, accountID int64) (*domain.Job, error) {
	q := r.db.Rebind(`SELECT id, account_id, status, error, started_at, finished_at
		FROM login_jobs WHERE account_id = ? ORDER BY started_at DESC, id DESC LIMIT 1`)
	var (
		j          domain.Job
		errText    sql.NullString
		startedAt  db.Time
		finishedAt db.Time
	)
	err := r.db.QueryRowContext(ctx, q, accountID).Scan(&j.ID, &j.AccountID, &j.Status, &errText, &startedAt, &finishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	j.Error = errText.String
	j.StartedAt = startedAt.Time
	j.FinishedAt = finishedAt.Ptr()
	return &j, nil
}

// FailActive closes jobs left running by a previous process.
func (r *SQLRepository) FailActive(ctx context.Context, reason string, at time.Time) (int64, error) {
	q := r.db.Rebind(`UPDATE login_jobs SET status = ?, error = ?, finished_at = ?
		WHERE status IN (?, ?)`)
	res, err := r.db.ExecContext(ctx, q, domain.StatusFailed, reason, r.db.TimeArg(at),
		domain.StatusRunning, domain.StatusWaitingForUser)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
