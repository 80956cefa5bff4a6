//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mond-tech/solfrance-backend/internal/testutil"
)

func TestRegisterConfirmLogin(t *testing.T) {
	client := newTestClient()
	email := uniqueEmail("register")

	registerUser(t, client, email, "password123")
	confirmEmailFromMailbox(t, client, email)
	client.LoginAs(t, email, "password123")

	resp, err := client.GET("/api/v1/me")
	require.NoError(t, err)

	var result struct {
		Data struct {
			Email          string `json:"email"`
			EmailConfirmed bool   `json:"email_confirmed"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	assert.Equal(t, email, result.Data.Email)
	assert.True(t, result.Data.EmailConfirmed)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	client := newTestClient()
	email := uniqueEmail("dup")

	registerUser(t, client, email, "password123")

	resp, err := client.POST("/api/v1/auth/register", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Only the first registration should have produced a mail.
	waitForMessage(t, email, 10*time.Second)
	messages, err := mailpitClient.GetMessages()
	require.NoError(t, err)
	count := 0
	for _, msg := range messages {
		for _, to := range msg.To {
			if to.Address == email {
				count++
			}
		}
	}
	assert.Equal(t, 1, count)
}

func TestConfirmationTokenIsSingleUse(t *testing.T) {
	client := newTestClient()
	email := uniqueEmail("singleuse")

	registerUser(t, client, email, "password123")

	msg := waitForMessage(t, email, 10*time.Second)
	match := confirmLinkRe.FindStringSubmatch(msg.HTML)
	require.NotNil(t, match)

	confirmPath := fmt.Sprintf("/api/v1/auth/confirm-email?userId=%s&token=%s", match[1], match[2])

	resp, err := client.POST(confirmPath, nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.POST(confirmPath, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestConfirmEmailWithWrongToken(t *testing.T) {
	client := newTestClient()
	email := uniqueEmail("wrongtoken")

	registerUser(t, client, email, "password123")

	msg := waitForMessage(t, email, 10*time.Second)
	match := confirmLinkRe.FindStringSubmatch(msg.HTML)
	require.NotNil(t, match)

	resp, err := client.POST(
		fmt.Sprintf("/api/v1/auth/confirm-email?userId=%s&token=%s", match[1], "bm90LXRoZS10b2tlbg"), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	client := newTestClient()
	email := uniqueEmail("badlogin")

	registerUser(t, client, email, "password123")

	resp, err := client.POST("/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": "not-the-password",
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	client := newTestClient()
	email := setupConfirmedUser(t, client)

	resp, err := client.POST("/api/v1/auth/change-password", map[string]string{
		"current_password": "password123",
		"new_password":     "betterpassword456",
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Old password no longer works, new one does.
	resp, err = client.POST("/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	client.LoginAs(t, email, "betterpassword456")
}

func TestAssignRoleRequiresAdmin(t *testing.T) {
	adminClient := newTestClient()
	adminEmail := uniqueEmail("admin")
	registerUser(t, adminClient, adminEmail, "password123")
	confirmEmailFromMailbox(t, adminClient, adminEmail)
	promoteToAdmin(t, adminEmail)
	adminClient.LoginAs(t, adminEmail, "password123")

	userClient := newTestClient()
	userEmail := setupConfirmedUser(t, userClient)

	// A regular user may not assign roles.
	resp, err := userClient.POST("/api/v1/auth/assign-role", map[string]string{
		"email": adminEmail,
		"role":  "customer",
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = adminClient.POST("/api/v1/auth/assign-role", map[string]string{
		"email": userEmail,
		"role":  "admin",
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = adminClient.POST("/api/v1/auth/assign-role", map[string]string{
		"email": userEmail,
		"role":  "superuser",
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnauthenticatedRequests(t *testing.T) {
	client := newTestClient()

	for _, path := range []string{"/api/v1/me", "/api/v1/cart"} {
		resp, err := client.GET(path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}
