// Package contact implements the public contact form.
package contact

import (
	"context"

	"github.com/mond-tech/solfrance-backend/internal/domain"
)

// Repository defines contact request persistence.
type Repository interface {
	CreateContactRequest(ctx context.Context, req *domain.ContactRequest) error
}
