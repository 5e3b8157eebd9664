package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/pkg/requestcontext"
)

func TestPublisherSyncMode(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	event := Event{
		UserID: "user-1",
		Action: EventIntakeSubmitted,
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventIntakeSubmitted, events[0].Action)
	assert.Equal(t, CategoryCompliance, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisherAsyncMode(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	err := pub.Emit(context.Background(), Event{
		UserID: "user-2",
		Action: EventLoginSucceeded,
	})
	require.NoError(t, err)

	// Close drains the buffer before returning.
	pub.Close()

	events, err := store.ListByUser(context.Background(), "user-2")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, CategorySecurity, events[0].Category)
}

func TestPublisherEnrichesRequestID(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	require.NoError(t, pub.Emit(ctx, Event{UserID: "user-3", Action: EventWeekToggled}))

	events, err := store.ListByUser(context.Background(), "user-3")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "req-42", events[0].RequestID)
}

func TestCategoryOfUnknownActionFallsBack(t *testing.T) {
	assert.Equal(t, CategoryOperations, CategoryOf("something.else"))
}

func TestSinkReceivesCopy(t *testing.T) {
	store := NewInMemoryStore()
	sink := &captureSink{}
	pub := NewPublisher(store, WithSink(sink))

	require.NoError(t, pub.Emit(context.Background(), Event{UserID: "u", Action: EventLogout}))
	pub.Close()

	require.Len(t, sink.events, 1)
	assert.Equal(t, EventLogout, sink.events[0].Action)
	assert.True(t, sink.closed)
}

type captureSink struct {
	events []Event
	closed bool
}

func (c *captureSink) Send(_ context.Context, event Event) error {
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) Close() { c.closed = true }
