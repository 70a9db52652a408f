package audit

import (
	"context"
	"maps"
	"sync"
	"time"
)

// NewMemoryRecorder constructs an "in memory" audit recorder.
func NewMemoryRecorder() Recorder {
	return &memoryRecorder{}
}

type memoryRecorder struct {
	mu      sync.RWMutex
	entries []*Entry
	nextID  int64
}

func (m *memoryRecorder) Record(_ context.Context, entry *Entry) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneEntry(entry)
	m.nextID++
	cloned.ID = m.nextID
	if cloned.CreatedAt.IsZero() {
		cloned.CreatedAt = time.Now().UTC()
	}
	m.entries = append(m.entries, cloned)
	return cloneEntry(cloned), nil
}

func (m *memoryRecorder) List(_ context.Context, filter Filter) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*Entry, 0)
	for _, entry := range m.entries {
		if filter.matches(entry) {
			matched = append(matched, entry)
		}
	}

	// Newest first, mirroring the bun recorder's ORDER BY id DESC.
	out := make([]*Entry, 0, len(matched))
	for i := len(matched) - 1; i >= 0; i-- {
		out = append(out, cloneEntry(matched[i]))
	}

	return paginate(out, filter.Limit, filter.Offset), nil
}

func paginate(entries []*Entry, limit, offset int) []*Entry {
	if offset > 0 {
		if offset >= len(entries) {
			return []*Entry{}
		}
		entries = entries[offset:]
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

func cloneEntry(src *Entry) *Entry {
	if src == nil {
		return nil
	}
	cloned := *src
	if src.Snapshot != nil {
		cloned.Snapshot = maps.Clone(src.Snapshot)
	}
	return &cloned
}
