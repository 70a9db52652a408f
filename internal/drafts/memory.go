package drafts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/internal/domain"
)

// NewMemoryRepository constructs an "in memory" draft repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byEntity: make(map[string]*Draft),
	}
}

type memoryRepository struct {
	mu       sync.RWMutex
	byEntity map[string]*Draft
}

func (m *memoryRepository) Create(_ context.Context, draft *Draft) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneDraft(draft)
	if cloned.ID == uuid.Nil {
		cloned.ID = uuid.New()
	}
	if cloned.ReviewStatus == "" {
		cloned.ReviewStatus = domain.ReviewStatusNone
	}
	if cloned.UpdatedAt.IsZero() {
		cloned.UpdatedAt = time.Now().UTC()
	}
	m.byEntity[draftKey(cloned.EntityType, cloned.EntityID)] = cloned
	return cloneDraft(cloned), nil
}

func (m *memoryRepository) Get(_ context.Context, entityType domain.EntityType, entityID uuid.UUID) (*Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	draft, ok := m.byEntity[draftKey(entityType, entityID)]
	if !ok {
		return nil, &NotFoundError{Resource: "draft", Key: entityID.String()}
	}
	return cloneDraft(draft), nil
}

func (m *memoryRepository) Save(_ context.Context, draft *Draft, expectedVersion int) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := draftKey(draft.EntityType, draft.EntityID)
	stored, ok := m.byEntity[key]
	if !ok {
		return nil, &NotFoundError{Resource: "draft", Key: draft.EntityID.String()}
	}
	if stored.Version != expectedVersion {
		return nil, &VersionConflictError{
			EntityID: draft.EntityID,
			Expected: expectedVersion,
			Actual:   stored.Version,
		}
	}

	cloned := cloneDraft(draft)
	cloned.ID = stored.ID
	cloned.Version = expectedVersion + 1
	if cloned.ReviewStatus == "" {
		cloned.ReviewStatus = stored.ReviewStatus
	}
	if cloned.UpdatedAt.IsZero() {
		cloned.UpdatedAt = time.Now().UTC()
	}
	m.byEntity[key] = cloned
	return cloneDraft(cloned), nil
}

func draftKey(entityType domain.EntityType, entityID uuid.UUID) string {
	return string(entityType) + ":" + entityID.String()
}
