// Package draftstore persists wizard drafts between requests.
package draftstore

import (
	"context"

	"caseflow/internal/intake/form"
)

// Store is the draft persistence contract. Implementations return
// sentinel.ErrNotFound for unknown or expired drafts.
type Store interface {
	// Save upserts a draft snapshot.
	Save(ctx context.Context, draft *form.Draft) error
	// Get returns the draft by ID.
	Get(ctx context.Context, id string) (*form.Draft, error)
	// Delete removes a draft. Deleting an absent draft is not an error.
	Delete(ctx context.Context, id string) error
}
