package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/diff"
	"github.com/goliatone/go-publish/internal/domain"
)

// NewMemoryRepository constructs an "in memory" version history repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byEntity: make(map[string][]*Entry),
	}
}

type memoryRepository struct {
	mu       sync.RWMutex
	byEntity map[string][]*Entry
}

func (m *memoryRepository) Append(_ context.Context, entry *Entry) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := entityKey(entry.EntityType, entry.EntityID)
	for _, existing := range m.byEntity[key] {
		if existing.Version == entry.Version {
			return nil, &VersionExistsError{EntityID: entry.EntityID, Version: entry.Version}
		}
	}

	cloned := cloneHistoryEntry(entry)
	if cloned.ID == uuid.Nil {
		cloned.ID = uuid.New()
	}
	if cloned.PublishedAt.IsZero() {
		cloned.PublishedAt = time.Now().UTC()
	}

	entries := append([]*Entry{}, m.byEntity[key]...)
	entries = append(entries, cloned)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	m.byEntity[key] = entries

	return cloneHistoryEntry(cloned), nil
}

func (m *memoryRepository) ListByEntity(_ context.Context, entityType domain.EntityType, entityID uuid.UUID, opts ListOptions) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.byEntity[entityKey(entityType, entityID)]
	if opts.Offset > 0 {
		if opts.Offset >= len(entries) {
			entries = nil
		} else {
			entries = entries[opts.Offset:]
		}
	}
	if opts.Limit > 0 && opts.Limit < len(entries) {
		entries = entries[:opts.Limit]
	}

	out := make([]*Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, cloneHistoryEntry(entry))
	}
	return out, nil
}

func (m *memoryRepository) GetVersion(_ context.Context, entityType domain.EntityType, entityID uuid.UUID, version int) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, entry := range m.byEntity[entityKey(entityType, entityID)] {
		if entry.Version == version {
			return cloneHistoryEntry(entry), nil
		}
	}
	return nil, &VersionNotFoundError{EntityID: entityID, Version: version}
}

func (m *memoryRepository) Latest(_ context.Context, entityType domain.EntityType, entityID uuid.UUID) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.byEntity[entityKey(entityType, entityID)]
	if len(entries) == 0 {
		return nil, &VersionNotFoundError{EntityID: entityID}
	}
	return cloneHistoryEntry(entries[len(entries)-1]), nil
}

func entityKey(entityType domain.EntityType, entityID uuid.UUID) string {
	return string(entityType) + ":" + entityID.String()
}

func cloneHistoryEntry(src *Entry) *Entry {
	if src == nil {
		return nil
	}
	cloned := *src
	cloned.Data = content.CloneSnapshot(src.Data)
	cloned.Meta = content.CloneLocaleMap(src.Meta)
	if src.Diff != nil {
		cloned.Diff = append([]diff.Entry{}, src.Diff...)
	}
	return &cloned
}
