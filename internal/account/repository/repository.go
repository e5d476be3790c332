package repository

import (
	"context"

	"account-console/internal/account/domain"
)

// Repository defines persistence for accounts.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
	// Create inserts a and sets a.ID.
	Create(ctx context.Context, a *domain.Account) error
	Count(ctx context.Context) (int, error)
}
