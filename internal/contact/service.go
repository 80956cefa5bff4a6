package contact

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mond-tech/solfrance-backend/internal/domain"
	"github.com/mond-tech/solfrance-backend/internal/mailer"
	"github.com/mond-tech/solfrance-backend/internal/pkg/ctxlog"
)

const contactSubject = "New contact request"

// EmailQueue is the fire-and-forget enqueue side of the mail pipeline.
type EmailQueue interface {
	Enqueue(msg mailer.Message)
}

// Service stores contact requests and notifies the sales inbox.
type Service struct {
	repo        Repository
	queue       EmailQueue
	renderer    *mailer.Renderer
	notifyEmail string
}

// NewService creates a contact service. notifyEmail is the inbox that
// receives a copy of each submission; empty disables notifications.
func NewService(repo Repository, queue EmailQueue, renderer *mailer.Renderer, notifyEmail string) *Service {
	return &Service{
		repo:        repo,
		queue:       queue,
		renderer:    renderer,
		notifyEmail: notifyEmail,
	}
}

// Submit stores the request and queues a notification email. The store
// must succeed; the email is best-effort.
func (s *Service) Submit(ctx context.Context, req *domain.ContactRequest) error {
	req.ID = uuid.NewString()

	if err := s.repo.CreateContactRequest(ctx, req); err != nil {
		return fmt.Errorf("store contact request: %w", err)
	}

	s.queueNotification(ctx, req)

	ctxlog.FromContext(ctx).Info("contact request received",
		"request_id", req.ID,
		"company", req.CompanyName,
	)
	return nil
}

func (s *Service) queueNotification(ctx context.Context, req *domain.ContactRequest) {
	if s.notifyEmail == "" {
		return
	}

	body, err := s.renderer.Render("contact_request", mailer.ContactRequestData{
		FullName:            req.FullName,
		WorkEmail:           req.WorkEmail,
		CompanyName:         req.CompanyName,
		PhoneNumber:         req.PhoneNumber,
		ProjectRequirements: req.ProjectRequirements,
	})
	if err != nil {
		ctxlog.FromContext(ctx).Error("render contact email", "error", err)
		return
	}

	s.queue.Enqueue(mailer.Message{
		To:      s.notifyEmail,
		Subject: contactSubject,
		Body:    body,
	})
}
