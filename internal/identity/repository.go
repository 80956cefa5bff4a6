package identity

import (
	"context"

	"github.com/mond-tech/solfrance-backend/internal/domain"
)

// Store defines user operations valid both on the pool and inside a
// transaction.
type Store interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	SetConfirmationToken(ctx context.Context, userID, tokenDigest string) error
	MarkEmailConfirmed(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetRole(ctx context.Context, userID string, role domain.Role) error
}

// Tx is a Store bound to one database transaction.
type Tx interface {
	Store
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Repository is the identity data access interface.
type Repository interface {
	Store
	Begin(ctx context.Context) (Tx, error)
}
