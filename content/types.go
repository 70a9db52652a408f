package content

import (
	"maps"
	"reflect"
	"strings"
)

// Block is one node in the ordered content tree of a draft or published
// snapshot. A block either owns its payload inline (page scope) or points at
// a global block by key+section (shared scope).
type Block struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Key     string         `json:"key,omitempty"`
	Section string         `json:"section,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	// Locales carries per-locale payload overrides merged over Payload when a
	// preview is resolved for a specific locale.
	Locales map[string]map[string]any `json:"locales,omitempty"`
	// Layouts carries per-layout payload overrides (desktop, mobile, ...).
	Layouts map[string]map[string]any `json:"layouts,omitempty"`
}

// IsGlobalRef reports whether the block references a shared global block
// instead of carrying its own payload.
func (b Block) IsGlobalRef() bool {
	return strings.TrimSpace(b.Key) != ""
}

// Ref identifies a global block reference extracted from a content tree.
type Ref struct {
	Key     string `json:"key"`
	Section string `json:"section"`
}

// Snapshot is the complete content payload of a draft or a published version:
// the ordered block tree plus top-level data and localized metadata that are
// not modeled as blocks.
type Snapshot struct {
	Blocks []Block        `json:"blocks,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
	// Meta maps locale code to page-level metadata fields.
	Meta map[string]map[string]any `json:"meta,omitempty"`
}

// Refs returns the distinct global block references present in the snapshot,
// in block order.
func (s Snapshot) Refs() []Ref {
	seen := map[Ref]struct{}{}
	out := []Ref{}
	for _, block := range s.Blocks {
		if !block.IsGlobalRef() {
			continue
		}
		ref := Ref{Key: strings.TrimSpace(block.Key), Section: strings.TrimSpace(block.Section)}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}

// BlockIDs returns the ordered block identifiers of the snapshot.
func (s Snapshot) BlockIDs() []string {
	out := make([]string, 0, len(s.Blocks))
	for _, block := range s.Blocks {
		out = append(out, block.ID)
	}
	return out
}

// CloneSnapshot deep-copies a snapshot so callers can mutate the result
// without aliasing stored state.
func CloneSnapshot(src Snapshot) Snapshot {
	out := Snapshot{
		Data: CloneMap(src.Data),
		Meta: CloneLocaleMap(src.Meta),
	}
	if len(src.Blocks) > 0 {
		out.Blocks = make([]Block, len(src.Blocks))
		for i, block := range src.Blocks {
			out.Blocks[i] = CloneBlock(block)
		}
	}
	return out
}

// CloneBlock deep-copies a single block.
func CloneBlock(src Block) Block {
	out := src
	out.Payload = CloneMap(src.Payload)
	out.Locales = CloneLocaleMap(src.Locales)
	out.Layouts = CloneLocaleMap(src.Layouts)
	return out
}

// CloneMap deep-copies a free-form payload map.
func CloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		switch typed := value.(type) {
		case map[string]any:
			out[key] = CloneMap(typed)
		case []any:
			out[key] = cloneSlice(typed)
		default:
			out[key] = value
		}
	}
	return out
}

func cloneSlice(src []any) []any {
	if src == nil {
		return nil
	}
	out := make([]any, len(src))
	for i, value := range src {
		switch typed := value.(type) {
		case map[string]any:
			out[i] = CloneMap(typed)
		case []any:
			out[i] = cloneSlice(typed)
		default:
			out[i] = value
		}
	}
	return out
}

// CloneLocaleMap deep-copies a locale-keyed payload map.
func CloneLocaleMap(src map[string]map[string]any) map[string]map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]map[string]any, len(src))
	for key, value := range src {
		out[key] = CloneMap(value)
	}
	return out
}

// PayloadEqual compares two payload maps structurally.
func PayloadEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// BlockEqual compares two blocks structurally, including overrides.
func BlockEqual(a, b Block) bool {
	if a.ID != b.ID || a.Type != b.Type || a.Key != b.Key || a.Section != b.Section {
		return false
	}
	if !PayloadEqual(a.Payload, b.Payload) {
		return false
	}
	return reflect.DeepEqual(a.Locales, b.Locales) && reflect.DeepEqual(a.Layouts, b.Layouts)
}

// MergePayload layers override on top of base without mutating either.
func MergePayload(base, override map[string]any) map[string]any {
	if len(override) == 0 {
		return CloneMap(base)
	}
	out := CloneMap(base)
	if out == nil {
		out = make(map[string]any, len(override))
	}
	maps.Copy(out, CloneMap(override))
	return out
}
