// Package postgres implements the contact repository on PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mond-tech/solfrance-backend/internal/domain"
)

// Repository implements contact.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository bound to the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateContactRequest inserts a contact form submission.
func (r *Repository) CreateContactRequest(ctx context.Context, req *domain.ContactRequest) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO contact_requests (id, full_name, job_title, work_email, phone_number, company_name, website, project_requirements)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		req.ID, req.FullName, req.JobTitle, req.WorkEmail, req.PhoneNumber, req.CompanyName, req.Website, req.ProjectRequirements,
	)

	if err := row.Scan(&req.CreatedAt); err != nil {
		return fmt.Errorf("create contact request: %w", err)
	}
	return nil
}
