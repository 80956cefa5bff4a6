package contact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mond-tech/solfrance-backend/internal/domain"
	"github.com/mond-tech/solfrance-backend/internal/mailer"
)

type mockRepository struct {
	requests []*domain.ContactRequest
	err      error
}

func (m *mockRepository) CreateContactRequest(_ context.Context, req *domain.ContactRequest) error {
	if m.err != nil {
		return m.err
	}
	m.requests = append(m.requests, req)
	return nil
}

type mockQueue struct {
	messages []mailer.Message
}

func (m *mockQueue) Enqueue(msg mailer.Message) {
	m.messages = append(m.messages, msg)
}

func TestSubmit(t *testing.T) {
	renderer, err := mailer.NewRenderer()
	require.NoError(t, err)

	request := func() *domain.ContactRequest {
		return &domain.ContactRequest{
			FullName:            "Jordan Vale",
			WorkEmail:           "jordan@fabrikam.example",
			CompanyName:         "Fabrikam",
			ProjectRequirements: "We need a storefront.",
		}
	}

	t.Run("stores request and notifies sales inbox", func(t *testing.T) {
		repo := &mockRepository{}
		queue := &mockQueue{}
		svc := NewService(repo, queue, renderer, "sales@solfrance.example")

		req := request()
		require.NoError(t, svc.Submit(context.Background(), req))

		require.Len(t, repo.requests, 1)
		assert.NotEmpty(t, req.ID)

		require.Len(t, queue.messages, 1)
		msg := queue.messages[0]
		assert.Equal(t, "sales@solfrance.example", msg.To)
		assert.Equal(t, "New contact request", msg.Subject)
		assert.Contains(t, msg.Body, "Jordan Vale")
		assert.Contains(t, msg.Body, "Fabrikam")
		assert.Contains(t, msg.Body, "We need a storefront.")
	})

	t.Run("no notify address skips the email", func(t *testing.T) {
		repo := &mockRepository{}
		queue := &mockQueue{}
		svc := NewService(repo, queue, renderer, "")

		require.NoError(t, svc.Submit(context.Background(), request()))
		assert.Len(t, repo.requests, 1)
		assert.Empty(t, queue.messages)
	})

	t.Run("store failure sends no email", func(t *testing.T) {
		repo := &mockRepository{err: assert.AnError}
		queue := &mockQueue{}
		svc := NewService(repo, queue, renderer, "sales@solfrance.example")

		require.Error(t, svc.Submit(context.Background(), request()))
		assert.Empty(t, queue.messages)
	})
}
