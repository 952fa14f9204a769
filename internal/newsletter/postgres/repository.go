// Package postgres provides the PostgreSQL implementation of the newsletter
// repository.
package postgres

import (
	"context"
	"errors"

	"github.com/inkdrift/inkdrift/internal/domain"
	"github.com/inkdrift/inkdrift/internal/newsletter"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements newsletter.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetByEmail retrieves a subscriber by normalized email, active or inactive.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	query := `
		SELECT id, email, status, subscribed_at, created_at, updated_at
		FROM subscribers
		WHERE email = $1
	`
	var s domain.Subscriber
	err := r.db.QueryRow(ctx, query, email).Scan(
		&s.ID,
		&s.Email,
		&s.Status,
		&s.SubscribedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, newsletter.ErrSubscriberNotFound
		}
		return nil, &newsletter.StorageError{Op: "get subscriber", Err: err}
	}
	return &s, nil
}

// Insert creates a new subscriber row. The unique index on email turns a
// lost insert race into ErrAlreadySubscribed instead of a raw storage error.
func (r *Repository) Insert(ctx context.Context, subscriber *domain.Subscriber) error {
	query := `
		INSERT INTO subscribers (email, status)
		VALUES ($1, $2)
		RETURNING id, subscribed_at, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		subscriber.Email,
		subscriber.Status,
	).Scan(
		&subscriber.ID,
		&subscriber.SubscribedAt,
		&subscriber.CreatedAt,
		&subscriber.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return newsletter.ErrAlreadySubscribed
		}
		return &newsletter.StorageError{Op: "insert subscriber", Err: err}
	}
	return nil
}

// SetStatus flips a subscriber's status. Reactivation refreshes
// subscribed_at to the reactivation time; deactivation leaves it untouched.
func (r *Repository) SetStatus(ctx context.Context, id string, status domain.SubscriberStatus) error {
	query := `
		UPDATE subscribers
		SET status = $2,
		    subscribed_at = CASE WHEN $2 = 'active' THEN NOW() ELSE subscribed_at END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`
	var updated string
	err := r.db.QueryRow(ctx, query, id, status).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return newsletter.ErrSubscriberNotFound
		}
		return &newsletter.StorageError{Op: "update subscriber status", Err: err}
	}
	return nil
}

// CountActive returns the number of active subscribers.
func (r *Repository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM subscribers WHERE status = 'active'`).Scan(&count)
	if err != nil {
		return 0, &newsletter.StorageError{Op: "count subscribers", Err: err}
	}
	return count, nil
}

// ListActive returns all active subscribers in insertion order.
func (r *Repository) ListActive(ctx context.Context) ([]domain.Subscriber, error) {
	query := `
		SELECT id, email, status, subscribed_at, created_at, updated_at
		FROM subscribers
		WHERE status = 'active'
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, &newsletter.StorageError{Op: "list subscribers", Err: err}
	}
	defer rows.Close()

	subscribers := make([]domain.Subscriber, 0)
	for rows.Next() {
		var s domain.Subscriber
		err := rows.Scan(
			&s.ID,
			&s.Email,
			&s.Status,
			&s.SubscribedAt,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, &newsletter.StorageError{Op: "scan subscriber", Err: err}
		}
		subscribers = append(subscribers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, &newsletter.StorageError{Op: "list subscribers", Err: err}
	}
	return subscribers, nil
}
