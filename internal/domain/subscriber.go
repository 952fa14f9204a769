// Package domain contains the core entities shared across modules.
package domain

import (
	"strings"
	"time"
)

// SubscriberStatus represents the subscription state of a stored email address.
type SubscriberStatus string

// Subscriber statuses. Rows are never deleted: unsubscribing flips the status
// to inactive and a later subscribe reactivates the same row.
const (
	SubscriberStatusActive   SubscriberStatus = "active"
	SubscriberStatusInactive SubscriberStatus = "inactive"
)

// IsValid checks if the subscriber status is valid.
func (s SubscriberStatus) IsValid() bool {
	switch s {
	case SubscriberStatusActive, SubscriberStatusInactive:
		return true
	}
	return false
}

// Subscriber represents a newsletter subscriber, uniquely keyed by
// normalized email address.
type Subscriber struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	Status       SubscriberStatus `json:"status"`
	SubscribedAt time.Time        `json:"subscribed_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// IsActive returns true if the subscriber currently receives newsletters.
func (s *Subscriber) IsActive() bool {
	return s.Status == SubscriberStatusActive
}

// NormalizeEmail returns the canonical form of a user-supplied address:
// trimmed and lowercased. All lookups and uniqueness checks use this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
