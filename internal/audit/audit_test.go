package audit_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/internal/audit"
	"github.com/goliatone/go-publish/internal/domain"
)

func TestMemoryRecorderAssignsSequentialIDs(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	ctx := context.Background()
	entityID := uuid.New()

	first, err := recorder.Record(ctx, &audit.Entry{
		EntityType: domain.EntityTypePage,
		EntityID:   entityID,
		Action:     domain.ActionPageCreated,
		Actor:      "editor-1",
	})
	if err != nil {
		t.Fatalf("record first entry: %v", err)
	}
	second, err := recorder.Record(ctx, &audit.Entry{
		EntityType: domain.EntityTypePage,
		EntityID:   entityID,
		Action:     domain.ActionDraftSaved,
		Actor:      "editor-1",
	})
	if err != nil {
		t.Fatalf("record second entry: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected sequential ids 1,2, got %d,%d", first.ID, second.ID)
	}
	if second.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be stamped")
	}
}

func TestMemoryRecorderListFilters(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	ctx := context.Background()

	pageID := uuid.New()
	blockID := uuid.New()

	seed := []*audit.Entry{
		{EntityType: domain.EntityTypePage, EntityID: pageID, Action: domain.ActionPageCreated, Actor: "alice"},
		{EntityType: domain.EntityTypePage, EntityID: pageID, Action: domain.ActionDraftSaved, Actor: "alice"},
		{EntityType: domain.EntityTypeBlock, EntityID: blockID, Action: domain.ActionBlockCreated, Actor: "bob"},
		{EntityType: domain.EntityTypePage, EntityID: pageID, Action: domain.ActionPublished, Actor: "bob"},
	}
	for _, entry := range seed {
		if _, err := recorder.Record(ctx, entry); err != nil {
			t.Fatalf("seed audit entry: %v", err)
		}
	}

	byEntity, err := recorder.List(ctx, audit.Filter{EntityType: domain.EntityTypePage, EntityID: pageID})
	if err != nil {
		t.Fatalf("list by entity: %v", err)
	}
	if len(byEntity) != 3 {
		t.Fatalf("expected 3 page entries, got %d", len(byEntity))
	}
	if byEntity[0].Action != domain.ActionPublished {
		t.Fatalf("expected newest entry first, got %s", byEntity[0].Action)
	}

	byActor, err := recorder.List(ctx, audit.Filter{Actor: "bob"})
	if err != nil {
		t.Fatalf("list by actor: %v", err)
	}
	if len(byActor) != 2 {
		t.Fatalf("expected 2 entries for bob, got %d", len(byActor))
	}

	limited, err := recorder.List(ctx, audit.Filter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list with pagination: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 paginated entries, got %d", len(limited))
	}
	if limited[0].Action != domain.ActionBlockCreated {
		t.Fatalf("expected offset to skip newest entry, got %s", limited[0].Action)
	}
}

func TestMemoryRecorderClonesSnapshots(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	ctx := context.Background()

	snapshot := map[string]any{"version": 3}
	recorded, err := recorder.Record(ctx, &audit.Entry{
		EntityType: domain.EntityTypePage,
		EntityID:   uuid.New(),
		Action:     domain.ActionPublished,
		Actor:      "alice",
		Snapshot:   snapshot,
	})
	if err != nil {
		t.Fatalf("record entry: %v", err)
	}

	snapshot["version"] = 99
	recorded.Snapshot["mutated"] = true

	listed, err := recorder.List(ctx, audit.Filter{})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(listed))
	}
	if listed[0].Snapshot["version"] != 3 {
		t.Fatalf("expected stored snapshot isolated from caller, got %v", listed[0].Snapshot["version"])
	}
	if _, ok := listed[0].Snapshot["mutated"]; ok {
		t.Fatal("expected returned snapshot isolated from stored state")
	}
}
