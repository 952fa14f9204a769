package newsletter

import (
	"errors"
	"fmt"
)

// Service errors.
var (
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrAlreadySubscribed   = errors.New("email is already subscribed")
	ErrAlreadyUnsubscribed = errors.New("email is already unsubscribed")
	ErrNotSubscribed       = errors.New("email is not subscribed")
)

// Repository errors.
var (
	ErrSubscriberNotFound = errors.New("subscriber not found")
)

// Dispatch errors.
var (
	ErrDispatchUnavailable = errors.New("mail dispatch is unavailable")
	ErrBroadcastFailed     = errors.New("newsletter delivery failed for all recipients")
)

// ErrStorage is the sentinel matched by errors.Is for any StorageError.
var ErrStorage = errors.New("storage failure")

// StorageError wraps an underlying persistence failure (connectivity,
// constraint violation) while keeping the original error chain intact.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports a match for the ErrStorage sentinel so handlers can map all
// persistence failures to a single generic response.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
