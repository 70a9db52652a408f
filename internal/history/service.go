package history

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

// Service exposes the read side of the version history. Writes happen only
// through the publish coordinator so history stays append-only.
type Service interface {
	ListVersions(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, opts ListOptions) ([]*Entry, error)
	GetVersion(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, version int) (*Entry, error)
	Latest(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*Entry, error)
}

type service struct {
	repo   Repository
	logger interfaces.Logger
}

// Option configures the history service.
type Option func(*service)

// WithLogger sets the logger used by the history service.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs the version history read service.
func NewService(repo Repository, opts ...Option) Service {
	svc := &service{
		repo:   repo,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *service) ListVersions(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, opts ListOptions) ([]*Entry, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID, opts)
}

func (s *service) GetVersion(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, version int) (*Entry, error) {
	entry, err := s.repo.GetVersion(ctx, entityType, entityID, version)
	if err != nil {
		s.logger.Debug("history version lookup failed",
			"entity_type", entityType,
			"entity_id", entityID.String(),
			"version", version,
		)
		return nil, err
	}
	return entry, nil
}

func (s *service) Latest(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*Entry, error) {
	return s.repo.Latest(ctx, entityType, entityID)
}
