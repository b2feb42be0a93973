package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "afridio/pkg/domain"
	"afridio/pkg/requestcontext"
)

func TestPublisherEnrichesFromContext(t *testing.T) {
	store := NewMemoryStore()
	pub := NewPublisher(store)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-123")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "Firefox 140 (Linux)")

	accountID := id.NewAccountID()
	err := pub.Emit(ctx, Event{
		AccountID: accountID,
		Action:    string(EventCodeIssued),
		Phone:     "+2********001",
	})
	require.NoError(t, err)

	events, err := pub.List(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, now, got.Timestamp)
	assert.Equal(t, "req-123", got.RequestID)
	assert.Equal(t, "203.0.113.9", got.ClientIP)
	assert.Equal(t, "Firefox 140 (Linux)", got.UserAgent)
	assert.Equal(t, string(EventCodeIssued), got.Action)
}

func TestMemoryStoreFiltersByAccount(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := id.NewAccountID()
	second := id.NewAccountID()
	require.NoError(t, store.Append(ctx, Event{AccountID: first, Action: "a"}))
	require.NoError(t, store.Append(ctx, Event{AccountID: second, Action: "b"}))
	require.NoError(t, store.Append(ctx, Event{AccountID: first, Action: "c"}))

	events, err := store.ListByAccount(ctx, first)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Action)
	assert.Equal(t, "c", events[1].Action)
}

func TestWorkerForwardsToSink(t *testing.T) {
	store := NewMemoryStore()
	pub := NewPublisher(store)
	worker := NewWorker(pub, 16, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	accountID := id.NewAccountID()
	require.NoError(t, worker.Emit(ctx, Event{AccountID: accountID, Action: "code_issued"}))

	assert.Eventually(t, func() bool {
		return len(store.All()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerDropsWhenInboxFull(t *testing.T) {
	store := NewMemoryStore()
	pub := NewPublisher(store)
	// Worker never started; inbox of 1 fills immediately.
	worker := NewWorker(pub, 1, slog.New(slog.DiscardHandler))

	ctx := context.Background()
	require.NoError(t, worker.Emit(ctx, Event{Action: "first"}))
	require.NoError(t, worker.Emit(ctx, Event{Action: "dropped"}))

	// Only the first event is buffered.
	assert.Len(t, worker.inbox, 1)
}
