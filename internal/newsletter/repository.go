// Package newsletter owns all subscriber state transitions and newsletter
// distribution. No other module writes to the subscriber store.
package newsletter

import (
	"context"

	"github.com/inkdrift/inkdrift/internal/domain"
)

// Repository defines the interface for subscriber data access.
type Repository interface {
	// GetByEmail looks up a subscriber by normalized email, active or not.
	// Returns ErrSubscriberNotFound on a miss.
	GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error)

	// Insert creates a new active subscriber and fills in ID and timestamps.
	// Returns ErrAlreadySubscribed if the unique constraint on email fires:
	// a concurrent subscribe won the insert race.
	Insert(ctx context.Context, subscriber *domain.Subscriber) error

	// SetStatus flips a subscriber between active and inactive. Reactivation
	// refreshes subscribed_at; deactivation preserves it.
	SetStatus(ctx context.Context, id string, status domain.SubscriberStatus) error

	CountActive(ctx context.Context) (int, error)
	ListActive(ctx context.Context) ([]domain.Subscriber, error)
}
