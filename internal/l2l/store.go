package l2l

import "context"

// Store persists client processes. Implementations return
// sentinel.ErrNotFound for unknown process IDs.
type Store interface {
	Create(ctx context.Context, process Process) error
	Get(ctx context.Context, id string) (Process, error)
	Update(ctx context.Context, process Process) error
	List(ctx context.Context) ([]Process, error)
}
