package repository

import (
	"context"

	"account-console/internal/message/domain"
)

// Repository defines persistence for messages.
type Repository interface {
	List(ctx context.Context) ([]*domain.Message, error)
	// Create inserts m and sets m.ID.
	Create(ctx context.Context, m *domain.Message) error
	Count(ctx context.Context) (int, error)
}
