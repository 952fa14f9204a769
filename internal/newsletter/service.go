package newsletter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/inkdrift/inkdrift/internal/domain"
)

// ConfirmationSender sends a single confirmation email after a successful
// subscribe. Implemented by Dispatcher.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, email string) error
}

// Service provides subscriber business logic.
type Service struct {
	repo      Repository
	confirmer ConfirmationSender
	validate  *validator.Validate
}

// NewService creates a new newsletter service. confirmer may be nil when
// email delivery is disabled; subscribes still succeed without confirmation.
func NewService(repo Repository, confirmer ConfirmationSender) *Service {
	return &Service{
		repo:      repo,
		confirmer: confirmer,
		validate:  validator.New(),
	}
}

// Subscribe adds an email to the newsletter or reactivates a previously
// unsubscribed address. The same row (same id) is reused on resubscribe;
// rows are never deleted. A confirmation email is fired best-effort: its
// failure is logged and never surfaced as a subscribe failure.
func (s *Service) Subscribe(ctx context.Context, email string) (*domain.Subscriber, error) {
	normalized := domain.NormalizeEmail(email)
	if err := s.validate.Var(normalized, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}

	existing, err := s.repo.GetByEmail(ctx, normalized)
	switch {
	case err == nil:
		if existing.IsActive() {
			return nil, ErrAlreadySubscribed
		}
		// Resubscribe: reactivate the existing row.
		if err := s.repo.SetStatus(ctx, existing.ID, domain.SubscriberStatusActive); err != nil {
			return nil, err
		}
		reactivated, err := s.repo.GetByEmail(ctx, normalized)
		if err != nil {
			return nil, err
		}
		s.sendConfirmation(ctx, normalized)
		slog.Info("subscriber reactivated", "subscriber_id", reactivated.ID)
		return reactivated, nil

	case errors.Is(err, ErrSubscriberNotFound):
		subscriber := &domain.Subscriber{
			Email:  normalized,
			Status: domain.SubscriberStatusActive,
		}
		if err := s.repo.Insert(ctx, subscriber); err != nil {
			// A concurrent subscribe may win the insert race; the unique
			// violation is reported as the same conflict as a lookup hit.
			return nil, err
		}
		s.sendConfirmation(ctx, normalized)
		slog.Info("subscriber created", "subscriber_id", subscriber.ID)
		return subscriber, nil

	default:
		return nil, err
	}
}

// Unsubscribe deactivates a subscriber. The row is kept so a later subscribe
// reactivates it.
func (s *Service) Unsubscribe(ctx context.Context, email string) (*domain.Subscriber, error) {
	normalized := domain.NormalizeEmail(email)
	if err := s.validate.Var(normalized, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}

	subscriber, err := s.repo.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrSubscriberNotFound) {
			return nil, ErrNotSubscribed
		}
		return nil, err
	}

	if !subscriber.IsActive() {
		return nil, ErrAlreadyUnsubscribed
	}

	if err := s.repo.SetStatus(ctx, subscriber.ID, domain.SubscriberStatusInactive); err != nil {
		return nil, err
	}

	subscriber.Status = domain.SubscriberStatusInactive
	slog.Info("subscriber deactivated", "subscriber_id", subscriber.ID)
	return subscriber, nil
}

// SubscriberCount returns the number of active subscribers.
func (s *Service) SubscriberCount(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}

// ActiveSubscribers returns full records of all active subscribers. Any
// masking for display is a presentation concern.
func (s *Service) ActiveSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) sendConfirmation(ctx context.Context, email string) {
	if s.confirmer == nil {
		return
	}
	if err := s.confirmer.SendConfirmation(ctx, email); err != nil {
		slog.Error("failed to send confirmation email", "error", err)
	}
}
