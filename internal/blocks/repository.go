package blocks

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository stores global blocks. Keys are unique per section; List reports
// the total match count alongside the requested window.
type Repository interface {
	Create(ctx context.Context, block *GlobalBlock) (*GlobalBlock, error)
	GetByID(ctx context.Context, id uuid.UUID) (*GlobalBlock, error)
	GetByKey(ctx context.Context, key, section string) (*GlobalBlock, error)
	List(ctx context.Context, opts ListOptions) ([]*GlobalBlock, int, error)
	Update(ctx context.Context, block *GlobalBlock) (*GlobalBlock, error)
}

func NewBlockRepository(db *bun.DB) repository.Repository[*GlobalBlock] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*GlobalBlock]{
		NewRecord: func() *GlobalBlock { return &GlobalBlock{} },
		GetID: func(b *GlobalBlock) uuid.UUID {
			return b.ID
		},
		SetID: func(b *GlobalBlock, id uuid.UUID) {
			b.ID = id
		},
		GetIdentifier: func() string {
			return "key"
		},
		GetIdentifierValue: func(b *GlobalBlock) string {
			return b.Key
		},
	})
}
