package newsletter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers a single email message. Implementations live in the smtp
// and postmark subpackages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Enabled() bool
	Name() string
}

// DispatcherConfig contains dispatcher configuration.
type DispatcherConfig struct {
	BaseURL     string
	SiteTitle   string
	SendTimeout time.Duration
	SendRate    float64
	SendBurst   int
}

// DefaultDispatcherConfig returns default dispatcher configuration.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		SendTimeout: 10 * time.Second,
		SendRate:    10,
		SendBurst:   5,
	}
}

// Dispatcher broadcasts newsletter emails to active subscribers and sends
// subscription confirmations. Per-recipient failures are tallied, never
// propagated individually.
type Dispatcher struct {
	repo     Repository
	sender   Sender
	renderer *Renderer
	config   DispatcherConfig
	limiter  *rate.Limiter
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(repo Repository, sender Sender, renderer *Renderer, config DispatcherConfig) *Dispatcher {
	if config.SendTimeout <= 0 {
		config.SendTimeout = DefaultDispatcherConfig().SendTimeout
	}
	if config.SendRate <= 0 {
		config.SendRate = DefaultDispatcherConfig().SendRate
	}
	if config.SendBurst <= 0 {
		config.SendBurst = DefaultDispatcherConfig().SendBurst
	}

	return &Dispatcher{
		repo:     repo,
		sender:   sender,
		renderer: renderer,
		config:   config,
		limiter:  rate.NewLimiter(rate.Limit(config.SendRate), config.SendBurst),
	}
}

// BroadcastInput contains the post data for one newsletter broadcast.
// Constructed on demand when an admin triggers a send; never stored.
type BroadcastInput struct {
	PostID    string
	PostTitle string
	PostHTML  string
	PostSlug  string
}

// BroadcastResult is the aggregate outcome of one broadcast.
type BroadcastResult struct {
	TotalSubscribers int `json:"total_subscribers"`
	Successful       int `json:"successful"`
	Failed           int `json:"failed"`
}

// Broadcast sends one newsletter email to every active subscriber. Exactly
// one send is attempted per subscriber; a failing recipient never aborts the
// rest. Sending to zero subscribers is a successful no-op. The call errors
// only when the sender is unavailable before any attempt, or when every
// single send failed.
func (d *Dispatcher) Broadcast(ctx context.Context, input BroadcastInput) (*BroadcastResult, error) {
	if d.sender == nil || !d.sender.Enabled() {
		return nil, ErrDispatchUnavailable
	}

	subscribers, err := d.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active subscribers: %w", err)
	}

	result := &BroadcastResult{TotalSubscribers: len(subscribers)}
	recordBroadcastSize(len(subscribers))

	if len(subscribers) == 0 {
		slog.Info("broadcast skipped, no active subscribers", "post_id", input.PostID)
		return result, nil
	}

	firstParagraph := FirstParagraph(input.PostHTML)
	postURL := d.buildPostURL(input.PostSlug)

	slog.Info("broadcasting newsletter",
		"post_id", input.PostID,
		"subscriber_count", len(subscribers),
		"sender", d.sender.Name(),
	)

	for i, subscriber := range subscribers {
		if err := d.limiter.Wait(ctx); err != nil {
			// Context cancelled mid-broadcast; count the rest as failed.
			result.Failed += len(subscribers) - i
			slog.Error("broadcast cancelled", "post_id", input.PostID, "error", err)
			break
		}

		if err := d.sendBroadcastEmail(ctx, subscriber.Email, input.PostTitle, firstParagraph, postURL); err != nil {
			result.Failed++
			recordSend("broadcast", "failed")
			slog.Error("failed to send newsletter email",
				"post_id", input.PostID,
				"subscriber_id", subscriber.ID,
				"error", err,
			)
			continue
		}

		result.Successful++
		recordSend("broadcast", "success")
	}

	slog.Info("broadcast finished",
		"post_id", input.PostID,
		"total", result.TotalSubscribers,
		"successful", result.Successful,
		"failed", result.Failed,
	)

	if result.Successful == 0 {
		return result, ErrBroadcastFailed
	}

	return result, nil
}

// SendConfirmation sends a single confirmation email to one new subscriber.
// The caller decides whether a failure here matters; Subscribe swallows it.
func (d *Dispatcher) SendConfirmation(ctx context.Context, email string) error {
	if d.sender == nil || !d.sender.Enabled() {
		return ErrDispatchUnavailable
	}

	htmlBody, textBody, err := d.renderer.RenderConfirmation(ConfirmationData{
		SiteTitle:      d.config.SiteTitle,
		Email:          email,
		UnsubscribeURL: d.buildUnsubscribeURL(email),
	})
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}

	msg := Message{
		To:       email,
		Subject:  fmt.Sprintf("Welcome to %s", d.config.SiteTitle),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	start := time.Now()
	err = d.send(ctx, msg)
	recordSendDuration("confirmation", time.Since(start))

	if err != nil {
		recordSend("confirmation", "failed")
		return fmt.Errorf("send confirmation: %w", err)
	}

	recordSend("confirmation", "success")
	return nil
}

func (d *Dispatcher) sendBroadcastEmail(ctx context.Context, email, postTitle, firstParagraph, postURL string) error {
	htmlBody, textBody, err := d.renderer.RenderBroadcast(BroadcastData{
		SiteTitle:      d.config.SiteTitle,
		PostTitle:      postTitle,
		FirstParagraph: firstParagraph,
		PostURL:        postURL,
		UnsubscribeURL: d.buildUnsubscribeURL(email),
	})
	if err != nil {
		return fmt.Errorf("render broadcast: %w", err)
	}

	msg := Message{
		To:       email,
		Subject:  d.config.SiteTitle,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	start := time.Now()
	err = d.send(ctx, msg)
	recordSendDuration("broadcast", time.Since(start))
	return err
}

// send applies the per-send timeout so one slow recipient cannot stall the
// whole broadcast.
func (d *Dispatcher) send(ctx context.Context, msg Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
	defer cancel()
	return d.sender.Send(sendCtx, msg)
}

func (d *Dispatcher) buildPostURL(slug string) string {
	if d.config.BaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/posts/%s", d.config.BaseURL, slug)
}

// buildUnsubscribeURL encodes the recipient's normalized address under the
// `email` query parameter; the landing page unsubscribes on load.
func (d *Dispatcher) buildUnsubscribeURL(email string) string {
	return fmt.Sprintf("%s/newsletter/unsubscribe?email=%s", d.config.BaseURL, url.QueryEscape(email))
}
