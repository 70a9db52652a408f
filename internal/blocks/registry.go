package blocks

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/goliatone/go-publish/internal/validation"
)

// Registry holds the JSON schema registered for each block type. It backs
// draft payload validation; a type without a schema passes validation
// untouched unless the registry is strict.
type Registry struct {
	mu     sync.RWMutex
	byType map[string]map[string]any
	strict bool
}

// RegistryOption configures the block type registry.
type RegistryOption func(*Registry)

// WithStrictTypes makes lookups fail for unregistered block types instead of
// reporting no schema.
func WithStrictTypes() RegistryOption {
	return func(r *Registry) {
		r.strict = true
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{byType: make(map[string]map[string]any)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register associates a JSON schema with a block type. The schema is compiled
// up front so a malformed definition fails at registration, not at save time.
func (r *Registry) Register(blockType string, schema map[string]any) error {
	if blockType == "" {
		return fmt.Errorf("blocks: block type is required")
	}
	if err := validation.ValidateSchema(schema); err != nil {
		return fmt.Errorf("register schema for %q: %w", blockType, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[blockType] = maps.Clone(schema)
	return nil
}

// SchemaForBlockType returns the schema registered for blockType. Unregistered
// types report no schema, or an error when the registry is strict.
func (r *Registry) SchemaForBlockType(_ context.Context, blockType string) (map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, ok := r.byType[blockType]
	if !ok {
		if r.strict {
			return nil, fmt.Errorf("blocks: block type %q not registered", blockType)
		}
		return nil, nil
	}
	return maps.Clone(schema), nil
}

// Types lists the registered block types in stable order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byType))
	for blockType := range r.byType {
		out = append(out, blockType)
	}
	sort.Strings(out)
	return out
}
