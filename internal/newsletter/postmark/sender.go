// Package postmark provides newsletter email delivery via the Postmark API.
package postmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkdrift/inkdrift/internal/newsletter"
	"github.com/mrz1836/postmark"
)

// Config holds Postmark sender configuration.
type Config struct {
	Enabled      bool
	ServerToken  string
	AccountToken string
	FromAddress  string
}

// Sender implements newsletter.Sender using Postmark's transactional API.
type Sender struct {
	config Config
	client *postmark.Client
}

// NewSender creates a new Postmark sender.
// Returns error if enabled but required config is missing.
func NewSender(config Config) (*Sender, error) {
	if config.Enabled {
		if config.ServerToken == "" {
			return nil, errors.New("postmark sender: server token is required when enabled")
		}
		if config.FromAddress == "" {
			return nil, errors.New("postmark sender: from address is required when enabled")
		}
	}

	s := &Sender{config: config}
	if config.Enabled {
		s.client = postmark.NewClient(config.ServerToken, config.AccountToken)
	}

	slog.Info("postmark sender configured",
		"enabled", config.Enabled,
		"from_address", config.FromAddress,
	)

	return s, nil
}

// Enabled reports whether the sender is configured to deliver mail.
func (s *Sender) Enabled() bool {
	return s.config.Enabled
}

// Name returns the sender name.
func (s *Sender) Name() string {
	return "postmark"
}

// Send delivers one email through Postmark.
func (s *Sender) Send(ctx context.Context, msg newsletter.Message) error {
	if !s.config.Enabled {
		slog.Warn("postmark sender disabled, skipping send")
		return nil
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.config.FromAddress,
		To:       msg.To,
		Subject:  msg.Subject,
		HTMLBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message)
	}

	return nil
}
