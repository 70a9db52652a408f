package blocks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-publish/internal/audit"
	"github.com/goliatone/go-publish/internal/blocks"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 6, 2, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newService(t *testing.T) (blocks.StoreService, drafts.Repository, audit.Recorder) {
	t.Helper()

	draftRepo := drafts.NewMemoryRepository()
	recorder := audit.NewMemoryRecorder()
	svc := blocks.NewService(blocks.NewMemoryRepository(), draftRepo, recorder, blocks.WithClock(fixedClock()))
	return svc, draftRepo, recorder
}

func TestCreateProvisionsEmptyDraft(t *testing.T) {
	svc, draftRepo, recorder := newService(t)
	ctx := context.Background()

	block, err := svc.Create(ctx, blocks.CreateBlockRequest{
		Key:     "Site Header",
		Title:   "Site Header",
		Section: "Layout",
		Actor:   "alice",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if block.Key != "site-header" || block.Section != "layout" {
		t.Fatalf("expected normalized key and section, got %q %q", block.Key, block.Section)
	}
	if block.Status != domain.StatusDraft || block.DraftVersion != 0 || block.UsageCount != 0 {
		t.Fatalf("expected fresh draft state, got %+v", block)
	}

	draft, err := draftRepo.Get(ctx, domain.EntityTypeBlock, block.ID)
	if err != nil {
		t.Fatalf("expected empty draft provisioned: %v", err)
	}
	if draft.Version != 0 {
		t.Fatalf("expected draft version 0, got %d", draft.Version)
	}

	entries, err := recorder.List(ctx, audit.Filter{EntityID: block.ID, Action: domain.ActionBlockCreated})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected block_created audit entry, got %d", len(entries))
	}
}

func TestCreateKeyUniquePerSection(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, blocks.CreateBlockRequest{Key: "header", Title: "Header", Section: "layout"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, blocks.CreateBlockRequest{Key: "header", Title: "Header", Section: "layout"}); !errors.Is(err, blocks.ErrKeyExists) {
		t.Fatalf("expected ErrKeyExists for same section, got %v", err)
	}
	if _, err := svc.Create(ctx, blocks.CreateBlockRequest{Key: "header", Title: "Header", Section: "marketing"}); err != nil {
		t.Fatalf("same key in another section should be allowed: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  blocks.CreateBlockRequest
		want error
	}{
		{"missing key", blocks.CreateBlockRequest{Title: "T", Section: "layout"}, blocks.ErrKeyRequired},
		{"missing title", blocks.CreateBlockRequest{Key: "k", Section: "layout"}, blocks.ErrTitleRequired},
		{"missing section", blocks.CreateBlockRequest{Key: "k", Title: "T"}, blocks.ErrSectionRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDeterministicBlockIdentity(t *testing.T) {
	svc1, _, _ := newService(t)
	svc2, _, _ := newService(t)
	ctx := context.Background()

	req := blocks.CreateBlockRequest{Key: "footer", Title: "Footer", Section: "layout"}
	first, err := svc1.Create(ctx, req)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc2.Create(ctx, req)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected deterministic id for key+section, got %s vs %s", first.ID, second.ID)
	}

	resolved, err := svc1.ResolveRef(ctx, "footer", "layout")
	if err != nil {
		t.Fatalf("resolve ref: %v", err)
	}
	if resolved != first.ID {
		t.Fatalf("expected ResolveRef to return block id, got %s", resolved)
	}
}

func TestUsageCountWriteback(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	block, err := svc.Create(ctx, blocks.CreateBlockRequest{Key: "promo", Title: "Promo", Section: "marketing"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.SetUsageCount(ctx, block.ID, 3); err != nil {
		t.Fatalf("set usage count: %v", err)
	}
	stored, err := svc.Get(ctx, block.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.UsageCount != 3 {
		t.Fatalf("expected usage count 3, got %d", stored.UsageCount)
	}
}

func TestEntityProjection(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	locale := "en"
	block, err := svc.Create(ctx, blocks.CreateBlockRequest{
		Key:               "hero",
		Title:             "Hero",
		Section:           "marketing",
		Locale:            &locale,
		RequiresPublisher: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	publishedAt := fixedClock()()
	if err := svc.SetDraftVersion(ctx, block.ID, 2); err != nil {
		t.Fatalf("set draft version: %v", err)
	}
	if err := svc.SetPublished(ctx, block.ID, 1, publishedAt); err != nil {
		t.Fatalf("set published: %v", err)
	}

	entity, err := svc.EntityByRef(ctx, "hero", "marketing")
	if err != nil {
		t.Fatalf("entity by ref: %v", err)
	}
	if entity.Type != domain.EntityTypeBlock || entity.Section != "marketing" {
		t.Fatalf("unexpected entity projection %+v", entity)
	}
	if !entity.RequiresPublisher {
		t.Fatal("expected publisher gate carried into entity")
	}
	if entity.PublishedVersion == nil || *entity.PublishedVersion != 1 || entity.DraftVersion != 2 {
		t.Fatalf("expected version counters projected, got %+v", entity)
	}
	if !entity.HasPendingDraft() {
		t.Fatal("expected pending draft with draft ahead of published")
	}
	if entity.Status != domain.StatusPublished {
		t.Fatalf("expected published status after first publish, got %s", entity.Status)
	}
}

func TestArchiveIsTerminal(t *testing.T) {
	svc, _, recorder := newService(t)
	ctx := context.Background()

	block, err := svc.Create(ctx, blocks.CreateBlockRequest{Key: "legacy", Title: "Legacy", Section: "layout"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	archived, err := svc.Archive(ctx, blocks.ArchiveBlockRequest{ID: block.ID, Actor: "alice"})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.Status != domain.StatusArchived {
		t.Fatalf("expected archived status, got %s", archived.Status)
	}
	if _, err := svc.Archive(ctx, blocks.ArchiveBlockRequest{ID: block.ID}); !errors.Is(err, blocks.ErrAlreadyArchived) {
		t.Fatalf("expected ErrAlreadyArchived, got %v", err)
	}

	entries, err := recorder.List(ctx, audit.Filter{EntityID: block.ID, Action: domain.ActionArchived})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected archived audit entry, got %d", len(entries))
	}
}

func TestListFilters(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	seed := []blocks.CreateBlockRequest{
		{Key: "header", Title: "Header", Section: "layout"},
		{Key: "footer", Title: "Footer", Section: "layout"},
		{Key: "promo", Title: "Spring Promo", Section: "marketing"},
	}
	for _, req := range seed {
		if _, err := svc.Create(ctx, req); err != nil {
			t.Fatalf("seed %s: %v", req.Key, err)
		}
	}

	layout, total, err := svc.List(ctx, blocks.ListOptions{Section: "layout", Sort: "key"})
	if err != nil {
		t.Fatalf("list by section: %v", err)
	}
	if total != 2 || len(layout) != 2 || layout[0].Key != "footer" {
		t.Fatalf("expected sorted layout blocks, got total=%d %+v", total, layout)
	}

	byQuery, _, err := svc.List(ctx, blocks.ListOptions{Query: "spring"})
	if err != nil {
		t.Fatalf("list by query: %v", err)
	}
	if len(byQuery) != 1 || byQuery[0].Key != "promo" {
		t.Fatalf("expected promo match, got %+v", byQuery)
	}
}
