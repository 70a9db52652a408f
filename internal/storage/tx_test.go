package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/internal/storage"
	"github.com/goliatone/go-publish/pkg/testsupport"
)

type txRecord struct {
	bun.BaseModel `bun:"table:tx_records"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

func newTestBunDB(t *testing.T) *bun.DB {
	t.Helper()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	bunDB := storage.NewBunDB(sqlDB, "sqlite")
	bunDB.SetMaxOpenConns(1)
	if err := testsupport.CreateTables(context.Background(), bunDB, (*txRecord)(nil)); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	return bunDB
}

func TestIDBFromContextDefaultsToFallback(t *testing.T) {
	if idb := storage.IDBFromContext(context.Background(), nil); idb != nil {
		t.Fatalf("expected nil handle outside a transaction, got %T", idb)
	}

	bunDB := newTestBunDB(t)
	if idb := storage.IDBFromContext(context.Background(), bunDB); idb != bun.IDB(bunDB) {
		t.Fatal("expected fallback handle outside a transaction")
	}
}

func TestBunTxRunnerCarriesTransactionOnContext(t *testing.T) {
	bunDB := newTestBunDB(t)
	runner := storage.NewBunTxRunner(bunDB)

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		idb := storage.IDBFromContext(ctx, nil)
		if idb == nil {
			t.Fatal("expected transaction handle on context")
		}
		if _, ok := idb.(bun.Tx); !ok {
			t.Fatalf("expected bun.Tx handle, got %T", idb)
		}
		_, err := idb.NewInsert().Model(&txRecord{Name: "committed"}).Exec(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("run in tx: %v", err)
	}

	count, err := bunDB.NewSelect().Model((*txRecord)(nil)).Count(context.Background())
	if err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected committed record, got %d rows", count)
	}
}

func TestBunTxRunnerRollsBackAllStatements(t *testing.T) {
	bunDB := newTestBunDB(t)
	runner := storage.NewBunTxRunner(bunDB)
	sinkErr := errors.New("sink unavailable")

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		idb := storage.IDBFromContext(ctx, bunDB)
		if _, err := idb.NewInsert().Model(&txRecord{Name: "first"}).Exec(ctx); err != nil {
			return err
		}
		if _, err := idb.NewInsert().Model(&txRecord{Name: "second"}).Exec(ctx); err != nil {
			return err
		}
		return sinkErr
	})
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected callback error, got %v", err)
	}

	count, err := bunDB.NewSelect().Model((*txRecord)(nil)).Count(context.Background())
	if err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to discard writes, got %d rows", count)
	}
}

func TestMemoryTxRunnerSerializesCallback(t *testing.T) {
	runner := storage.NewMemoryTxRunner()
	calls := 0
	err := runner.RunInTx(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("memory runner: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single invocation, got %d", calls)
	}
}
