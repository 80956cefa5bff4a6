//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

// MailpitClient provides access to the Mailpit REST API for testing.
type MailpitClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMailpitClient creates a new Mailpit API client.
func NewMailpitClient(host string, port int) *MailpitClient {
	return &MailpitClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, port),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// MailpitMessage represents an email message in Mailpit.
type MailpitMessage struct {
	ID      string           `json:"ID"`
	From    MailpitAddress   `json:"From"`
	To      []MailpitAddress `json:"To"`
	Subject string           `json:"Subject"`
	Snippet string           `json:"Snippet"`
	HTML    string           // populated by GetMessageByID
}

// MailpitAddress represents an email address.
type MailpitAddress struct {
	Address string `json:"Address"`
	Name    string `json:"Name"`
}

type messagesResponse struct {
	Messages []MailpitMessage `json:"messages"`
	Total    int              `json:"messages_count"`
}

// GetMessages returns all messages in the inbox.
func (c *MailpitClient) GetMessages() ([]MailpitMessage, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v1/messages")
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get messages: status %d: %s", resp.StatusCode, body)
	}

	var result messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return result.Messages, nil
}

// GetMessageByID returns a single message with full body content.
func (c *MailpitClient) GetMessageByID(id string) (*MailpitMessage, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v1/message/" + id)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get message: status %d", resp.StatusCode)
	}

	var msg MailpitMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

// DeleteAllMessages clears the inbox.
func (c *MailpitClient) DeleteAllMessages() error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/api/v1/messages", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete messages: status %d", resp.StatusCode)
	}
	return nil
}

// waitForMessage polls Mailpit until a message addressed to recipient
// arrives or the timeout expires. Delivery runs on a background worker
// so tests cannot assume the mail is there immediately.
func waitForMessage(t *testing.T, recipient string, timeout time.Duration) *MailpitMessage {
	t.Helper()
	return waitFor(t, timeout, func(msg MailpitMessage) bool {
		for _, to := range msg.To {
			if to.Address == recipient {
				return true
			}
		}
		return false
	}, "email for "+recipient)
}

// waitForSubject polls for a message to recipient with the given subject.
func waitForSubject(t *testing.T, recipient, subject string, timeout time.Duration) *MailpitMessage {
	t.Helper()
	return waitFor(t, timeout, func(msg MailpitMessage) bool {
		if msg.Subject != subject {
			return false
		}
		for _, to := range msg.To {
			if to.Address == recipient {
				return true
			}
		}
		return false
	}, fmt.Sprintf("email %q for %s", subject, recipient))
}

func waitFor(t *testing.T, timeout time.Duration, match func(MailpitMessage) bool, desc string) *MailpitMessage {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		messages, err := mailpitClient.GetMessages()
		if err != nil {
			t.Fatalf("poll mailpit: %v", err)
		}
		for _, msg := range messages {
			if match(msg) {
				full, err := mailpitClient.GetMessageByID(msg.ID)
				if err != nil {
					t.Fatalf("fetch message: %v", err)
				}
				return full
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("no %s within %s", desc, timeout)
	return nil
}
