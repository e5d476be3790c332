package repository

import (
	"context"

	"account-console/internal/db"
	"account-console/internal/message/domain"
)

// SQLRepository stores messages in Postgres or SQLite.
type SQLRepository struct {
	db *db.DB
}

// NewSQLRepository returns a message repository that uses the given db for persistence.
func NewSQLRepository(conn *db.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

// List returns all messages in insertion order.
func (r *SQLRepository) List(ctx context.Context) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, account_id, listing_title, sender, text, timestamp FROM messages ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.AccountID, &m.ListingTitle, &m.Sender, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// Create persists m and sets its ID from the database.
func (r *SQLRepository) Create(ctx context.Context, m *domain.Message) error {
	q := r.db.Rebind(`INSERT INTO messages (account_id, listing_title, sender, text, timestamp)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	return r.db.QueryRowContext(ctx, q, m.AccountID, m.ListingTitle, m.Sender, m.Text, m.Timestamp).Scan(&m.ID)
}

// Count returns the number of messages.
func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}
