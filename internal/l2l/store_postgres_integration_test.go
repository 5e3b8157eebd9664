//go:build integration

package l2l

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/pkg/sentinel"
	"caseflow/pkg/testutil/containers"
)

func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	pc := containers.NewPostgresContainer(t)
	store := NewPostgresStore(pc.DB)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	process := NewProcess("p-1", "Maria Lopez", "555-0100", "referral", now)
	process.Weeks[0] = StatusCumplio
	process.Weeks[1] = StatusNoCumplio
	require.NoError(t, store.Create(ctx, process))

	got, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, process.ClientName, got.ClientName)
	assert.Equal(t, process.Weeks, got.Weeks)
	assert.True(t, process.CreatedAt.Equal(got.CreatedAt))
}

func TestPostgresStoreDuplicateCreate(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	process := NewProcess("p-1", "Maria Lopez", "", "", time.Now().UTC())
	require.NoError(t, store.Create(ctx, process))
	assert.ErrorIs(t, store.Create(ctx, process), sentinel.ErrConflict)
}

func TestPostgresStoreUpdate(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	process := NewProcess("p-1", "Maria Lopez", "", "", time.Now().UTC())
	require.NoError(t, store.Create(ctx, process))

	process.Weeks[5] = StatusCumplio
	process.Phone = "555-0199"
	process.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.Update(ctx, process))

	got, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCumplio, got.Weeks[5])
	assert.Equal(t, "555-0199", got.Phone)

	missing := NewProcess("p-404", "Nobody", "", "", time.Now().UTC())
	assert.ErrorIs(t, store.Update(ctx, missing), sentinel.ErrNotFound)
}

func TestPostgresStoreGetMissing(t *testing.T) {
	store := newPostgresStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStoreListOrder(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	older := NewProcess("p-1", "First", "", "", time.Now().UTC().Add(-time.Hour))
	newer := NewProcess("p-2", "Second", "", "", time.Now().UTC())
	require.NoError(t, store.Create(ctx, newer))
	require.NoError(t, store.Create(ctx, older))

	processes, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, processes, 2)
	assert.Equal(t, "p-1", processes[0].ID)
	assert.Equal(t, "p-2", processes[1].ID)
}
