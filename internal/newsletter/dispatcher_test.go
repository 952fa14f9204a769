package newsletter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inkdrift/inkdrift/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSender implements Sender for testing.
type mockSender struct {
	enabled bool
	sent    []Message
	failFor map[string]bool
}

func (m *mockSender) Send(_ context.Context, msg Message) error {
	if m.failFor[msg.To] {
		return errors.New("delivery refused")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockSender) Enabled() bool { return m.enabled }
func (m *mockSender) Name() string  { return "mock" }

func newTestDispatcher(t *testing.T, repo Repository, sender Sender) *Dispatcher {
	t.Helper()

	renderer, err := NewRenderer()
	require.NoError(t, err)

	return NewDispatcher(repo, sender, renderer, DispatcherConfig{
		BaseURL:   "https://blog.example.com",
		SiteTitle: "Inkdrift",
		SendRate:  1000,
		SendBurst: 1000,
	})
}

func activeSubscribers(t *testing.T, repo *mockRepository, emails ...string) {
	t.Helper()
	for _, email := range emails {
		require.NoError(t, repo.Insert(context.Background(), &domain.Subscriber{
			Email:  email,
			Status: domain.SubscriberStatusActive,
		}))
	}
}

func TestDispatcher_Broadcast_DisabledSender(t *testing.T) {
	repo := newMockRepository()
	activeSubscribers(t, repo, "a@example.com")

	d := newTestDispatcher(t, repo, &mockSender{enabled: false})

	_, err := d.Broadcast(context.Background(), BroadcastInput{PostID: "post-1"})
	assert.ErrorIs(t, err, ErrDispatchUnavailable)
}

func TestDispatcher_Broadcast_NilSender(t *testing.T) {
	repo := newMockRepository()

	renderer, err := NewRenderer()
	require.NoError(t, err)
	d := NewDispatcher(repo, nil, renderer, DispatcherConfig{})

	_, err = d.Broadcast(context.Background(), BroadcastInput{PostID: "post-1"})
	assert.ErrorIs(t, err, ErrDispatchUnavailable)
}

func TestDispatcher_Broadcast_NoSubscribers(t *testing.T) {
	repo := newMockRepository()
	sender := &mockSender{enabled: true}
	d := newTestDispatcher(t, repo, sender)

	result, err := d.Broadcast(context.Background(), BroadcastInput{PostID: "post-1"})
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalSubscribers)
	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, sender.sent)
}

func TestDispatcher_Broadcast_OneSendPerSubscriber(t *testing.T) {
	repo := newMockRepository()
	activeSubscribers(t, repo, "a@example.com", "b@example.com", "c@example.com")

	sender := &mockSender{enabled: true}
	d := newTestDispatcher(t, repo, sender)

	result, err := d.Broadcast(context.Background(), BroadcastInput{
		PostID:    "post-1",
		PostTitle: "Morning Fog",
		PostHTML:  "<p>The harbor was quiet today.</p><p>Second paragraph.</p>",
		PostSlug:  "morning-fog",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalSubscribers)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Len(t, sender.sent, 3)

	recipients := make(map[string]bool)
	for _, msg := range sender.sent {
		recipients[msg.To] = true
	}
	assert.Len(t, recipients, 3)
}

func TestDispatcher_Broadcast_PartialFailure(t *testing.T) {
	repo := newMockRepository()
	activeSubscribers(t, repo, "a@example.com", "b@example.com", "c@example.com")

	sender := &mockSender{enabled: true, failFor: map[string]bool{"b@example.com": true}}
	d := newTestDispatcher(t, repo, sender)

	result, err := d.Broadcast(context.Background(), BroadcastInput{
		PostID:    "post-1",
		PostTitle: "Morning Fog",
		PostHTML:  "<p>The harbor was quiet today.</p>",
		PostSlug:  "morning-fog",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalSubscribers)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, result.TotalSubscribers, result.Successful+result.Failed)
}

func TestDispatcher_Broadcast_AllFailed(t *testing.T) {
	repo := newMockRepository()
	activeSubscribers(t, repo, "a@example.com", "b@example.com")

	sender := &mockSender{
		enabled: true,
		failFor: map[string]bool{"a@example.com": true, "b@example.com": true},
	}
	d := newTestDispatcher(t, repo, sender)

	result, err := d.Broadcast(context.Background(), BroadcastInput{
		PostID:    "post-1",
		PostTitle: "Morning Fog",
		PostHTML:  "<p>The harbor was quiet today.</p>",
		PostSlug:  "morning-fog",
	})
	assert.ErrorIs(t, err, ErrBroadcastFailed)

	require.NotNil(t, result)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 0, result.Successful)
}

func TestDispatcher_Broadcast_EmailContent(t *testing.T) {
	repo := newMockRepository()
	activeSubscribers(t, repo, "reader@example.com")

	sender := &mockSender{enabled: true}
	d := newTestDispatcher(t, repo, sender)

	_, err := d.Broadcast(context.Background(), BroadcastInput{
		PostID:    "post-1",
		PostTitle: "Morning Fog",
		PostHTML:  "<p>The harbor was quiet today.</p><p>Not this one.</p>",
		PostSlug:  "morning-fog",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "reader@example.com", msg.To)
	assert.Equal(t, "Inkdrift", msg.Subject)

	for _, body := range []string{msg.HTMLBody, msg.TextBody} {
		assert.Contains(t, body, "Morning Fog")
		assert.Contains(t, body, "The harbor was quiet today.")
		assert.NotContains(t, body, "Not this one.")
		assert.Contains(t, body, "https://blog.example.com/posts/morning-fog")
		assert.Contains(t, body, "https://blog.example.com/newsletter/unsubscribe?email=reader%40example.com")
	}
}

// blockingSender hangs on the listed recipients until the send context
// expires, then reports its error. All other recipients succeed.
type blockingSender struct {
	mockSender
	blockFor map[string]bool
}

func (b *blockingSender) Send(ctx context.Context, msg Message) error {
	if b.blockFor[msg.To] {
		<-ctx.Done()
		return ctx.Err()
	}
	return b.mockSender.Send(ctx, msg)
}

func TestDispatcher_Broadcast_SlowRecipientTimesOut(t *testing.T) {
	repo := newMockRepository()
	activeSubscribers(t, repo, "a@example.com", "stuck@example.com", "c@example.com")

	sender := &blockingSender{
		mockSender: mockSender{enabled: true},
		blockFor:   map[string]bool{"stuck@example.com": true},
	}

	renderer, err := NewRenderer()
	require.NoError(t, err)

	d := NewDispatcher(repo, sender, renderer, DispatcherConfig{
		BaseURL:     "https://blog.example.com",
		SiteTitle:   "Inkdrift",
		SendTimeout: 10 * time.Millisecond,
		SendRate:    1000,
		SendBurst:   1000,
	})

	result, err := d.Broadcast(context.Background(), BroadcastInput{
		PostID:    "post-1",
		PostTitle: "Morning Fog",
		PostHTML:  "<p>Text.</p>",
		PostSlug:  "morning-fog",
	})
	require.NoError(t, err)

	// The stalled recipient is cut off by the per-send timeout and the
	// broadcast keeps going.
	assert.Equal(t, 3, result.TotalSubscribers)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, sender.sent, 2)
	for _, msg := range sender.sent {
		assert.NotEqual(t, "stuck@example.com", msg.To)
	}
}

func TestDispatcher_Broadcast_CancelledContext(t *testing.T) {
	repo := newMockRepository()
	activeSubscribers(t, repo, "a@example.com", "b@example.com")

	sender := &mockSender{enabled: true}
	d := newTestDispatcher(t, repo, sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := d.Broadcast(ctx, BroadcastInput{
		PostID:    "post-1",
		PostTitle: "Morning Fog",
		PostHTML:  "<p>Text.</p>",
		PostSlug:  "morning-fog",
	})
	// Nothing was sent, so the broadcast counts as fully failed.
	assert.ErrorIs(t, err, ErrBroadcastFailed)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Failed)
}

func TestDispatcher_SendConfirmation(t *testing.T) {
	repo := newMockRepository()
	sender := &mockSender{enabled: true}
	d := newTestDispatcher(t, repo, sender)

	err := d.SendConfirmation(context.Background(), "new@example.com")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "new@example.com", msg.To)
	assert.Contains(t, msg.Subject, "Inkdrift")
	assert.Contains(t, msg.TextBody, "new@example.com")
	assert.Contains(t, msg.TextBody, "https://blog.example.com/newsletter/unsubscribe?email=new%40example.com")
}

func TestDispatcher_SendConfirmation_Disabled(t *testing.T) {
	repo := newMockRepository()
	d := newTestDispatcher(t, repo, &mockSender{enabled: false})

	err := d.SendConfirmation(context.Background(), "new@example.com")
	assert.ErrorIs(t, err, ErrDispatchUnavailable)
}
