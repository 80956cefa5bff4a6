package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mond-tech/solfrance-backend/internal/domain"
	"github.com/mond-tech/solfrance-backend/internal/mailer"
	"github.com/mond-tech/solfrance-backend/internal/pkg/ctxlog"
)

// confirmEmailSubject is the subject of every confirmation mail.
const confirmEmailSubject = "Confirm your email"

// EmailQueue is the fire-and-forget enqueue side of the mail pipeline.
// Enqueue returns immediately and cannot fail, which is what lets the
// registration transaction treat "email queued" as a synchronous step.
type EmailQueue interface {
	Enqueue(msg mailer.Message)
}

// Authenticator issues and validates access tokens.
type Authenticator interface {
	GenerateToken(ctx context.Context, user *domain.User) (string, error)
	ValidateToken(ctx context.Context, token string) (userID string, role domain.Role, err error)
}

// Service implements registration, login and account management.
type Service struct {
	repo            Repository
	auth            Authenticator
	queue           EmailQueue
	renderer        *mailer.Renderer
	frontendBaseURL string
}

// NewService creates an identity service.
func NewService(repo Repository, auth Authenticator, queue EmailQueue, renderer *mailer.Renderer, frontendBaseURL string) *Service {
	return &Service{
		repo:            repo,
		auth:            auth,
		queue:           queue,
		renderer:        renderer,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
	}
}

// RegisterInput contains registration data. Validation of shape
// (email format, password length) happens at the handler.
type RegisterInput struct {
	Email       string
	Password    string
	Name        string
	PhoneNumber string
}

// Register creates an account and queues its confirmation email inside
// one transaction. The commit only happens after the message has been
// enqueued, so no committed account exists without a confirmation mail
// at least having entered the queue. Actual delivery stays best-effort:
// the worker may still drop the message after retries.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback is a no-op once the transaction committed.
	defer func() { _ = tx.Rollback(ctx) }()

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         in.Name,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
	}

	if err := tx.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, digest, err := NewConfirmationToken()
	if err != nil {
		return nil, err
	}
	if err := tx.SetConfirmationToken(ctx, user.ID, digest); err != nil {
		return nil, fmt.Errorf("store confirmation token: %w", err)
	}
	user.ConfirmationTokenHash = &digest

	link := fmt.Sprintf("%s/confirm-email?userId=%s&token=%s", s.frontendBaseURL, user.ID, token)
	body, err := s.renderer.Render("confirm_email", mailer.ConfirmationEmailData{
		Name:            user.Name,
		ConfirmationURL: link,
	})
	if err != nil {
		return nil, fmt.Errorf("render confirmation email: %w", err)
	}

	s.queue.Enqueue(mailer.Message{
		To:      user.Email,
		Subject: confirmEmailSubject,
		Body:    body,
	})

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	ctxlog.FromContext(ctx).Info("user registered", "user_id", user.ID)
	return user, nil
}

// ConfirmEmail validates a confirmation token and flips the confirmed
// flag. Tokens are single-use: a successful confirmation clears the
// stored digest, so a second attempt with the same token fails.
func (s *Service) ConfirmEmail(ctx context.Context, userID, encodedToken string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.EmailConfirmed {
		return ErrAlreadyConfirmed
	}
	if user.ConfirmationTokenHash == nil {
		return ErrInvalidToken
	}
	if !VerifyConfirmationToken(encodedToken, *user.ConfirmationTokenHash) {
		return ErrInvalidToken
	}

	if err := s.repo.MarkEmailConfirmed(ctx, user.ID); err != nil {
		return fmt.Errorf("mark email confirmed: %w", err)
	}

	ctxlog.FromContext(ctx).Info("email confirmed", "user_id", user.ID)
	return nil
}

// LoginInput contains login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// Login checks credentials and issues an access token. Unknown user and
// wrong password collapse into one error so the response does not leak
// which part was wrong.
func (s *Service) Login(ctx context.Context, in LoginInput) (*domain.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.auth.GenerateToken(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, user.ID, string(hash))
}

// AssignRole changes the role of the user with the given email.
func (s *Service) AssignRole(ctx context.Context, email string, role domain.Role) error {
	if role != domain.RoleCustomer && role != domain.RoleAdmin {
		return ErrInvalidRole
	}

	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}

	return s.repo.SetRole(ctx, user.ID, role)
}

// GetUserByID returns a user by id.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ValidateToken implements the auth middleware contract.
func (s *Service) ValidateToken(ctx context.Context, token string) (string, domain.Role, error) {
	return s.auth.ValidateToken(ctx, token)
}
