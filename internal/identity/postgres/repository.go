// Package postgres implements the identity repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mond-tech/solfrance-backend/internal/domain"
	"github.com/mond-tech/solfrance-backend/internal/identity"
)

const uniqueViolation = "23505"

// querier is the subset of pgxpool.Pool and pgx.Tx the repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements identity.Repository.
type Repository struct {
	pool *pgxpool.Pool
	db   querier
}

// NewRepository creates a repository bound to the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// Begin starts a transaction and returns a store bound to it.
func (r *Repository) Begin(ctx context.Context) (identity.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &txRepository{Repository: Repository{pool: r.pool, db: tx}, tx: tx}, nil
}

type txRepository struct {
	Repository
	tx pgx.Tx
}

func (t *txRepository) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *txRepository) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

const userColumns = `id, email, name, phone_number, password_hash, role, email_confirmed, confirmation_token_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PhoneNumber,
		&u.PasswordHash,
		&u.Role,
		&u.EmailConfirmed,
		&u.ConfirmationTokenHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a user row. A duplicate email maps to
// identity.ErrEmailExists.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, name, phone_number, password_hash, role, email_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		user.ID, user.Email, user.Name, user.PhoneNumber, user.PasswordHash, user.Role, user.EmailConfirmed,
	)

	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByID returns a user by id.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail returns a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// SetConfirmationToken stores the digest of a freshly issued
// confirmation token.
func (r *Repository) SetConfirmationToken(ctx context.Context, userID, tokenDigest string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET confirmation_token_hash = $2, updated_at = now()
		WHERE id = $1`,
		userID, tokenDigest,
	)
	if err != nil {
		return fmt.Errorf("set confirmation token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// MarkEmailConfirmed flips the confirmed flag and clears the token
// digest, consuming the token.
func (r *Repository) MarkEmailConfirmed(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET email_confirmed = true, confirmation_token_hash = NULL, updated_at = now()
		WHERE id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("mark email confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *Repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// SetRole updates the user's role.
func (r *Repository) SetRole(ctx context.Context, userID string, role domain.Role) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET role = $2, updated_at = now()
		WHERE id = $1`,
		userID, role,
	)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}
