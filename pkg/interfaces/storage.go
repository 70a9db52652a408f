package interfaces

import "context"

// TxRunner executes a function within a storage transaction boundary so
// compound mutations (draft save + usage index + audit, publish commit)
// either complete or fail as a unit.
//
// The memory implementation serializes mutators behind a single lock; the
// bun implementation delegates to bun.DB.RunInTx.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoTxRunner runs the function directly with no transactional guarantee.
// Useful for read paths and tests that assemble services by hand.
type NoTxRunner struct{}

func (NoTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
