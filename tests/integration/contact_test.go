//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactForm(t *testing.T) {
	client := newTestClient()

	require.NoError(t, mailpitClient.DeleteAllMessages())

	resp, err := client.POST("/api/v1/contact", map[string]string{
		"fullName":            "Elodie Marchand",
		"workEmail":           "elodie@atelier.example",
		"companyName":         "Atelier Marchand",
		"projectRequirements": "Interested in a wholesale partnership.",
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Submission lands in the database.
	var count int
	err = testDB.QueryRow(context.Background(),
		`SELECT count(*) FROM contact_requests WHERE work_email = $1`,
		"elodie@atelier.example",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The sales inbox gets a copy.
	msg := waitForSubject(t, contactInbox, "New contact request", 10*time.Second)
	assert.Contains(t, msg.HTML, "Elodie Marchand")
	assert.Contains(t, msg.HTML, "Atelier Marchand")
	assert.Contains(t, msg.HTML, "Interested in a wholesale partnership.")
}

func TestContactFormValidation(t *testing.T) {
	client := newTestClient()

	resp, err := client.POST("/api/v1/contact", map[string]string{
		"fullName":  "No Email",
		"workEmail": "not-an-address",
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
