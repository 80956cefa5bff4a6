// Package smtp provides the SMTP mail transport used by the delivery
// worker. Each Sender wraps one dialer; DialAndSend opens and closes a
// connection per call, which matches the worker's fresh-transport-per-
// attempt policy.
package smtp

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/mond-tech/solfrance-backend/internal/mailer"
)

// Config holds SMTP transport configuration.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// Sender sends HTML mail over SMTP via gomail.
type Sender struct {
	config Config
	dialer *gomail.Dialer
}

// NewSender validates the config and builds a sender.
func NewSender(config Config) (*Sender, error) {
	if config.Host == "" {
		return nil, errors.New("smtp sender: host is required")
	}
	if config.FromAddress == "" {
		return nil, errors.New("smtp sender: from address is required")
	}
	if config.Port == 0 {
		config.Port = 587
	}

	return &Sender{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
	}, nil
}

// Send delivers one message. gomail has no context support, so
// cancellation is only checked before dialing.
func (s *Sender) Send(ctx context.Context, msg mailer.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromAddress, s.config.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
