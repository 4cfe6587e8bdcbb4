package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// UserRepository persistencia del personal. Los Get devuelven (nil, nil) si no existe.
type UserRepository interface {
	// Create falla con domain.ErrDuplicate si el email ya está registrado.
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.User, error)
}
