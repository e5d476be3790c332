package repository

import (
	"context"
	"database/sql"
	"errors"

	"account-console/internal/account/domain"
	"account-console/internal/db"
)

const accountColumns = "id, name, email, age_days, proxy, ios_profile, notes"

// SQLRepository stores accounts in Postgres or SQLite.
type SQLRepository struct {
	db *db.DB
}

// NewSQLRepository returns an account repository that uses the given db for persistence.
func NewSQLRepository(conn *db.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT "+accountColumns+" FROM accounts WHERE id = ?"), id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// List returns all accounts ordered by id.
func (r *SQLRepository) List(ctx context.Context) ([]*domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create persists a and sets its ID from the database.
func (r *SQLRepository) Create(ctx context.Context, a *domain.Account) error {
	q := r.db.Rebind(`INSERT INTO accounts (name, email, age_days, proxy, ios_profile, notes)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	return r.db.QueryRowContext(ctx, q, a.Name, a.Email, a.AgeDays, a.Proxy, a.IOSProfile, a.Notes).Scan(&a.ID)
}

// Count returns the number of accounts.
func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	if err := s.Scan(&a.ID, &a.Name, &a.Email, &a.AgeDays, &a.Proxy, &a.IOSProfile, &a.Notes); err != nil {
		return nil, err
	}
	return &a, nil
}
