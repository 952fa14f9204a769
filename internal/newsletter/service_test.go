package newsletter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/inkdrift/inkdrift/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	byEmail      map[string]*domain.Subscriber
	nextID       int
	getErr       error
	insertErr    error
	setStatusErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{byEmail: make(map[string]*domain.Subscriber)}
}

func (m *mockRepository) GetByEmail(_ context.Context, email string) (*domain.Subscriber, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.byEmail[email]
	if !ok {
		return nil, ErrSubscriberNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockRepository) Insert(_ context.Context, subscriber *domain.Subscriber) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.byEmail[subscriber.Email]; ok {
		return ErrAlreadySubscribed
	}
	m.nextID++
	subscriber.ID = fmt.Sprintf("sub-%d", m.nextID)
	now := time.Now()
	subscriber.SubscribedAt = now
	subscriber.CreatedAt = now
	subscriber.UpdatedAt = now
	copied := *subscriber
	m.byEmail[subscriber.Email] = &copied
	return nil
}

func (m *mockRepository) SetStatus(_ context.Context, id string, status domain.SubscriberStatus) error {
	if m.setStatusErr != nil {
		return m.setStatusErr
	}
	for _, s := range m.byEmail {
		if s.ID == id {
			s.Status = status
			if status == domain.SubscriberStatusActive {
				s.SubscribedAt = time.Now()
			}
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrSubscriberNotFound
}

func (m *mockRepository) CountActive(_ context.Context) (int, error) {
	count := 0
	for _, s := range m.byEmail {
		if s.IsActive() {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) ListActive(_ context.Context) ([]domain.Subscriber, error) {
	var result []domain.Subscriber
	for _, s := range m.byEmail {
		if s.IsActive() {
			result = append(result, *s)
		}
	}
	return result, nil
}

// mockConfirmer implements ConfirmationSender for testing.
type mockConfirmer struct {
	sent []string
	err  error
}

func (m *mockConfirmer) SendConfirmation(_ context.Context, email string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func TestService_Subscribe_RejectsInvalidEmails(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{name: "empty", email: ""},
		{name: "whitespace only", email: "   "},
		{name: "no at sign", email: "not-an-email"},
		{name: "missing local part", email: "@example.com"},
		{name: "missing domain", email: "user@"},
		{name: "spaces inside", email: "user name@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			svc := NewService(repo, nil)

			_, err := svc.Subscribe(context.Background(), tt.email)
			assert.ErrorIs(t, err, ErrInvalidEmail)
			assert.Empty(t, repo.byEmail)
		})
	}
}

func TestService_Subscribe_AcceptsMinimalDomain(t *testing.T) {
	// "test@0" has a syntactically valid local part and domain label, so it
	// passes validation even though no mail will ever arrive there.
	repo := newMockRepository()
	svc := NewService(repo, nil)

	subscriber, err := svc.Subscribe(context.Background(), "test@0")
	require.NoError(t, err)
	assert.Equal(t, "test@0", subscriber.Email)
}

func TestService_Subscribe_CreatesActiveSubscriber(t *testing.T) {
	repo := newMockRepository()
	confirmer := &mockConfirmer{}
	svc := NewService(repo, confirmer)

	subscriber, err := svc.Subscribe(context.Background(), "alice@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, subscriber.ID)
	assert.Equal(t, "alice@example.com", subscriber.Email)
	assert.Equal(t, domain.SubscriberStatusActive, subscriber.Status)
	assert.False(t, subscriber.SubscribedAt.IsZero())
	assert.Equal(t, []string{"alice@example.com"}, confirmer.sent)
}

func TestService_Subscribe_NormalizesEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	subscriber, err := svc.Subscribe(context.Background(), "  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", subscriber.Email)

	// The differently-cased variant hits the same row.
	_, err = svc.Subscribe(context.Background(), "ALICE@example.com")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestService_Subscribe_DuplicateActive(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, err := svc.Subscribe(context.Background(), "alice@example.com")
	require.NoError(t, err)

	_, err = svc.Subscribe(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
	assert.Len(t, repo.byEmail, 1)
}

func TestService_Subscribe_ReactivatesSameRow(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	original, err := svc.Subscribe(context.Background(), "alice@example.com")
	require.NoError(t, err)

	_, err = svc.Unsubscribe(context.Background(), "alice@example.com")
	require.NoError(t, err)

	reactivated, err := svc.Subscribe(context.Background(), "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, original.ID, reactivated.ID)
	assert.Equal(t, domain.SubscriberStatusActive, reactivated.Status)
	assert.Len(t, repo.byEmail, 1)
}

func TestService_Subscribe_ConfirmationFailureIsSwallowed(t *testing.T) {
	repo := newMockRepository()
	confirmer := &mockConfirmer{err: errors.New("smtp down")}
	svc := NewService(repo, confirmer)

	subscriber, err := svc.Subscribe(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriberStatusActive, subscriber.Status)
}

func TestService_Subscribe_StorageError(t *testing.T) {
	repo := newMockRepository()
	repo.getErr = &StorageError{Op: "get subscriber", Err: errors.New("connection refused")}
	svc := NewService(repo, nil)

	_, err := svc.Subscribe(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestService_Subscribe_InsertRaceReportsConflict(t *testing.T) {
	// A concurrent subscribe can win the insert between lookup and insert;
	// the unique violation surfaces as the same conflict as a lookup hit.
	repo := newMockRepository()
	repo.insertErr = ErrAlreadySubscribed
	svc := NewService(repo, nil)

	_, err := svc.Subscribe(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestService_Unsubscribe_DeactivatesSubscriber(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, err := svc.Subscribe(context.Background(), "alice@example.com")
	require.NoError(t, err)

	subscriber, err := svc.Unsubscribe(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriberStatusInactive, subscriber.Status)

	// The row survives deactivation.
	assert.Len(t, repo.byEmail, 1)

	count, err := svc.SubscriberCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestService_Unsubscribe_UnknownEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, err := svc.Unsubscribe(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotSubscribed)
}

func TestService_Unsubscribe_AlreadyInactive(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, err := svc.Subscribe(context.Background(), "alice@example.com")
	require.NoError(t, err)

	_, err = svc.Unsubscribe(context.Background(), "alice@example.com")
	require.NoError(t, err)

	_, err = svc.Unsubscribe(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrAlreadyUnsubscribed)
}

func TestService_Unsubscribe_InvalidEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, err := svc.Unsubscribe(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestService_SubscriberCount_OnlyActive(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Subscribe(context.Background(), email)
		require.NoError(t, err)
	}

	_, err := svc.Unsubscribe(context.Background(), "b@example.com")
	require.NoError(t, err)

	count, err := svc.SubscriberCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	active, err := svc.ActiveSubscribers(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
