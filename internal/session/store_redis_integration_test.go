//go:build integration

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/pkg/sentinel"
	"caseflow/pkg/testutil/containers"
)

func TestRedisSessionRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	sess := Session{
		ID:            "s-1",
		UserID:        "u-1",
		UserName:      "Maria Lopez",
		TokenHash:     "$2a$10$hash",
		BackendCookie: "JSESSIONID=upstream",
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)
}

func TestRedisSessionExpiry(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	sess := Session{ID: "s-1", UserID: "u-1", ExpiresAt: time.Now().Add(time.Second)}
	require.NoError(t, store.Save(ctx, sess))

	time.Sleep(1500 * time.Millisecond)
	_, err := store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisSessionDelete(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	sess := Session{ID: "s-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Delete(ctx, "s-1"))

	_, err := store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
