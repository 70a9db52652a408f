package storage

import (
	"context"
	"database/sql"
	"sync"

	"github.com/uptrace/bun"
)

// MemoryTxRunner serializes compound mutations behind a single mutex. The
// memory repositories are individually safe; the runner only guarantees that
// multi-repository operations do not interleave.
type MemoryTxRunner struct {
	mu sync.Mutex
}

// NewMemoryTxRunner constructs a runner for memory-backed deployments.
func NewMemoryTxRunner() *MemoryTxRunner {
	return &MemoryTxRunner{}
}

func (r *MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

type idbKey struct{}

// WithIDB returns a context carrying the handle bun repositories must execute
// against. The runner sets it to the open transaction so every statement
// issued inside the callback joins that transaction.
func WithIDB(ctx context.Context, db bun.IDB) context.Context {
	return context.WithValue(ctx, idbKey{}, db)
}

// IDBFromContext returns the transaction handle carried by ctx, or fallback
// when the call happens outside a runner transaction.
func IDBFromContext(ctx context.Context, fallback bun.IDB) bun.IDB {
	if idb, ok := ctx.Value(idbKey{}).(bun.IDB); ok && idb != nil {
		return idb
	}
	return fallback
}

// BunTxRunner wraps bun's transaction support. The open transaction travels
// on the context via WithIDB so repositories resolve it instead of writing
// through their own database handle.
type BunTxRunner struct {
	db *bun.DB
}

// NewBunTxRunner constructs a runner delegating to db.RunInTx.
func NewBunTxRunner(db *bun.DB) *BunTxRunner {
	return &BunTxRunner{db: db}
}

func (r *BunTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(WithIDB(ctx, tx))
	})
}
