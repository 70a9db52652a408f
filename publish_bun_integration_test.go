package publish_test

import (
	"context"
	"errors"
	"testing"

	publish "github.com/goliatone/go-publish"
	"github.com/goliatone/go-publish/blocks"
	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/audit"
	"github.com/goliatone/go-publish/internal/di"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/history"
	"github.com/goliatone/go-publish/internal/storage"
	"github.com/goliatone/go-publish/internal/usage"
	"github.com/goliatone/go-publish/pages"
	"github.com/goliatone/go-publish/pkg/testsupport"
)

func newBunModule(t *testing.T, opts ...di.Option) *publish.Module {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	bunDB := storage.NewBunDB(sqlDB, "sqlite")
	bunDB.SetMaxOpenConns(1)

	if err := testsupport.CreateTables(ctx, bunDB,
		(*pages.Page)(nil),
		(*blocks.GlobalBlock)(nil),
		(*drafts.Draft)(nil),
		(*history.Entry)(nil),
		(*usage.Row)(nil),
		(*audit.Entry)(nil),
	); err != nil {
		t.Fatalf("create tables: %v", err)
	}

	cfg := publish.DefaultConfig()
	cfg.Storage.Driver = "bun"
	module, err := publish.New(cfg, append([]di.Option{di.WithBunDB(bunDB)}, opts...)...)
	if err != nil {
		t.Fatalf("publish.New: %v", err)
	}
	return module
}

// failingAuditSink delegates to a real recorder but rejects one action so a
// mid-publish failure can be simulated.
type failingAuditSink struct {
	inner audit.Recorder
	fail  domain.Action
}

func (s *failingAuditSink) Record(ctx context.Context, entry *audit.Entry) (*audit.Entry, error) {
	if entry != nil && entry.Action == s.fail {
		return nil, errors.New("audit sink unavailable")
	}
	return s.inner.Record(ctx, entry)
}

func (s *failingAuditSink) List(ctx context.Context, filter audit.Filter) ([]*audit.Entry, error) {
	return s.inner.List(ctx, filter)
}

func TestModuleBunStorageLifecycle(t *testing.T) {
	module := newBunModule(t)
	ctx := context.Background()

	pageID := createPage(t, module, "bun-landing")
	blockID := createBlock(t, module)

	saveDraft(t, module, domain.EntityTypeBlock, blockID, 0, content.Snapshot{
		Blocks: []content.Block{
			{ID: "header", Type: "header", Payload: map[string]any{"logo": "acme.svg"}},
		},
	})
	saveDraft(t, module, domain.EntityTypePage, pageID, 0, content.Snapshot{
		Blocks: []content.Block{
			{ID: "hero", Type: "hero", Payload: map[string]any{"title": "Welcome"}},
			{ID: "hdr", Key: "site-header", Section: "layout"},
		},
	})

	result, err := module.Publisher().PublishPage(ctx, publish.PublishPageRequest{
		PageID: pageID,
		Actor:  "alice",
	})
	if err != nil {
		t.Fatalf("publish page: %v", err)
	}
	if result.Version != 1 {
		t.Fatalf("expected page version 1, got %d", result.Version)
	}

	rows, err := module.Usage().ListForBlock(ctx, blockID)
	if err != nil {
		t.Fatalf("list usage: %v", err)
	}
	if len(rows) != 1 || rows[0].PageID != pageID {
		t.Fatalf("expected usage row for page, got %+v", rows)
	}

	versions, err := module.History().ListVersions(ctx, domain.EntityTypePage, pageID, history.ListOptions{})
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("expected one frozen version, got %d", len(versions))
	}

	page, err := module.Pages().Get(ctx, pageID)
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if page.PublishedVersion == nil || *page.PublishedVersion != 1 {
		t.Fatalf("expected published version 1 on page row, got %+v", page.PublishedVersion)
	}
}

func TestModuleBunPublishRollsBackOnAuditFailure(t *testing.T) {
	sink := &failingAuditSink{
		inner: audit.NewMemoryRecorder(),
		fail:  domain.ActionPublished,
	}
	module := newBunModule(t, di.WithAuditor(sink))
	ctx := context.Background()

	pageID := createPage(t, module, "atomic")
	saveDraft(t, module, domain.EntityTypePage, pageID, 0, content.Snapshot{
		Blocks: []content.Block{
			{ID: "hero", Type: "hero", Payload: map[string]any{"title": "Welcome"}},
		},
	})

	if _, err := module.Publisher().PublishPage(ctx, publish.PublishPageRequest{
		PageID: pageID,
		Actor:  "alice",
	}); err == nil {
		t.Fatal("expected publish to fail when audit record fails")
	}

	page, err := module.Pages().Get(ctx, pageID)
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if page.PublishedVersion != nil {
		t.Fatalf("expected publish rolled back, got published version %d", *page.PublishedVersion)
	}

	versions, err := module.History().ListVersions(ctx, domain.EntityTypePage, pageID, history.ListOptions{})
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("expected no history rows after rollback, got %d", len(versions))
	}

	entries, err := module.Audit().List(ctx, audit.Filter{
		EntityType: domain.EntityTypePage,
		EntityID:   pageID,
		Action:     domain.ActionPublished,
	})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no published audit entry, got %d", len(entries))
	}
}

func TestModuleBunDriverRequiresDatabase(t *testing.T) {
	cfg := publish.DefaultConfig()
	cfg.Storage.Driver = "bun"

	if _, err := publish.New(cfg); err == nil {
		t.Fatal("expected error when bun driver configured without database")
	}
}
