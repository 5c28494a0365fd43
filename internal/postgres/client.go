package postgres

import "context"

// IClient runs units of work atomically. Both the postgres DB and the in-memory
// store implement it, so services never care which storage driver is active.
type IClient interface {
	// WithTx wraps the given function in a transaction. Nested calls join the
	// outer transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ IClient = (*DB)(nil)
