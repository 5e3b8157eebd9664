//go:build integration

package draftstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/intake/form"
	"caseflow/pkg/sentinel"
	"caseflow/pkg/testutil/containers"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client, time.Hour)
	ctx := context.Background()

	draft := form.NewDraft("d-1", "user-1", time.Now().UTC().Truncate(time.Second))
	draft.SetField(form.FieldFirstName, "Maria")
	draft.SetField(form.FieldNumberOfPersons, "2")
	require.NoError(t, draft.SetSubjectField(2, form.FieldFirstName, "Jose"))
	require.NoError(t, store.Save(ctx, draft))

	got, err := store.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria", got.Record.Fields[form.FieldFirstName])
	assert.Equal(t, "Jose", got.Record.Persons[2][form.FieldFirstName])
	assert.Equal(t, draft.Position, got.Position)
}

func TestRedisStoreNotFound(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client, time.Hour)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client, time.Second)
	ctx := context.Background()

	draft := form.NewDraft("d-1", "user-1", time.Now())
	require.NoError(t, store.Save(ctx, draft))

	time.Sleep(1500 * time.Millisecond)
	_, err := store.Get(ctx, "d-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStoreDelete(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client, time.Hour)
	ctx := context.Background()

	draft := form.NewDraft("d-1", "user-1", time.Now())
	require.NoError(t, store.Save(ctx, draft))
	require.NoError(t, store.Delete(ctx, "d-1"))

	_, err := store.Get(ctx, "d-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
