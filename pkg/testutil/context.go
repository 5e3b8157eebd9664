package testutil

import (
	"context"
	"testing"
	"time"

	"caseflow/pkg/requestcontext"
)

// AuthedContext returns a context carrying an authenticated user and session,
// as the session middleware would have set them.
func AuthedContext(t *testing.T, userID, sessionID string) context.Context {
	t.Helper()
	ctx := requestcontext.WithUserID(context.Background(), userID)
	return requestcontext.WithSessionID(ctx, sessionID)
}

// FrozenContext returns a context with a fixed request time for deterministic
// timestamps in service tests.
func FrozenContext(t *testing.T, at time.Time) context.Context {
	t.Helper()
	return requestcontext.WithTime(context.Background(), at)
}
