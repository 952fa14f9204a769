// Package smtp provides newsletter email delivery via SMTP.
package smtp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkdrift/inkdrift/internal/newsletter"
	"github.com/wneessen/go-mail"
)

// Config holds SMTP sender configuration.
type Config struct {
	Enabled     bool
	Host        string
	Port        int
	User        string
	Password    string
	FromAddress string
	FromName    string
}

// Sender implements newsletter.Sender over SMTP.
type Sender struct {
	config Config
	client *mail.Client
}

// NewSender creates a new SMTP sender.
// Returns error if enabled but required config is missing.
func NewSender(config Config) (*Sender, error) {
	if config.Enabled {
		if config.Host == "" {
			return nil, errors.New("smtp sender: host is required when enabled")
		}
		if config.FromAddress == "" {
			return nil, errors.New("smtp sender: from address is required when enabled")
		}
	}

	// Set defaults
	if config.Port == 0 {
		config.Port = 587
	}

	s := &Sender{config: config}

	if config.Enabled {
		opts := []mail.Option{
			mail.WithPort(config.Port),
			mail.WithTLSPolicy(mail.TLSOpportunistic),
		}
		if config.User != "" && config.Password != "" {
			opts = append(opts,
				mail.WithSMTPAuth(mail.SMTPAuthPlain),
				mail.WithUsername(config.User),
				mail.WithPassword(config.Password),
			)
		}

		client, err := mail.NewClient(config.Host, opts...)
		if err != nil {
			return nil, fmt.Errorf("smtp sender: create client: %w", err)
		}
		s.client = client
	}

	slog.Info("smtp sender configured",
		"enabled", config.Enabled,
		"host", config.Host,
		"port", config.Port,
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
	return "smtp"
}

// Send delivers one email over SMTP. The context deadline set by the
// dispatcher bounds the whole dial-and-send.
func (s *Sender) Send(ctx context.Context, msg newsletter.Message) error {
	if !s.config.Enabled {
		slog.Warn("smtp sender disabled, skipping send")
		return nil
	}

	m := mail.NewMsg()

	if s.config.FromName != "" {
		if err := m.FromFormat(s.config.FromName, s.config.FromAddress); err != nil {
			return fmt.Errorf("set from: %w", err)
		}
	} else {
		if err := m.From(s.config.FromAddress); err != nil {
			return fmt.Errorf("set from: %w", err)
		}
	}

	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}

	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("dial and send: %w", err)
	}

	return nil
}
