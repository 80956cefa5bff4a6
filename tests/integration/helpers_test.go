//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mond-tech/solfrance-backend/internal/testutil"
)

var emailSeq atomic.Int64

// uniqueEmail returns an address no other test has used.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, emailSeq.Add(1))
}

// confirmLinkRe matches the confirmation link embedded in the
// registration email. html/template escapes the query separator.
var confirmLinkRe = regexp.MustCompile(`/confirm-email\?userId=([0-9a-f-]+)(?:&amp;|&)token=([A-Za-z0-9_-]+)`)

// registerUser registers a new account and returns its email address.
func registerUser(t *testing.T, client *testutil.Client, email, password string) {
	t.Helper()

	resp, err := client.POST("/api/v1/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     "Test Shopper",
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

// confirmEmailFromMailbox waits for the confirmation email, extracts
// the link and confirms the address through the API.
func confirmEmailFromMailbox(t *testing.T, client *testutil.Client, email string) {
	t.Helper()

	msg := waitForMessage(t, email, 10*time.Second)
	require.Equal(t, "Confirm your email", msg.Subject)

	match := confirmLinkRe.FindStringSubmatch(msg.HTML)
	require.NotNil(t, match, "confirmation email must contain the link, got: %s", msg.HTML)

	resp, err := client.POST(
		fmt.Sprintf("/api/v1/auth/confirm-email?userId=%s&token=%s", match[1], match[2]), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// setupConfirmedUser registers, confirms and logs in a fresh user.
func setupConfirmedUser(t *testing.T, client *testutil.Client) string {
	t.Helper()

	email := uniqueEmail("shopper")
	registerUser(t, client, email, "password123")
	confirmEmailFromMailbox(t, client, email)
	client.LoginAs(t, email, "password123")
	return email
}

// seedProduct inserts a product directly and returns its id.
func seedProduct(t *testing.T, name string, price float64) string {
	t.Helper()

	id := uuid.NewString()
	_, err := testDB.Exec(context.Background(), `
		INSERT INTO products (id, name, price, description, category_name)
		VALUES ($1, $2, $3, '', 'test')`,
		id, name, price,
	)
	require.NoError(t, err)
	return id
}

// promoteToAdmin sets the user's role directly in the database.
func promoteToAdmin(t *testing.T, email string) {
	t.Helper()

	_, err := testDB.Exec(context.Background(),
		`UPDATE users SET role = 'admin' WHERE email = $1`, email)
	require.NoError(t, err)
}
