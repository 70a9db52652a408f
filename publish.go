package publish

import (
	"github.com/goliatone/go-publish/internal/audit"
	"github.com/goliatone/go-publish/internal/blocks"
	"github.com/goliatone/go-publish/internal/di"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/history"
	"github.com/goliatone/go-publish/internal/jobs"
	"github.com/goliatone/go-publish/internal/pages"
	"github.com/goliatone/go-publish/internal/preview"
	"github.com/goliatone/go-publish/internal/publisher"
	"github.com/goliatone/go-publish/internal/usage"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

// PageService exports the page catalog contract for consumers of the publish package.
type PageService = pages.StoreService

// BlockService exports the global block catalog contract.
type BlockService = blocks.StoreService

// DraftService exports the draft save/validate contract.
type DraftService = drafts.Service

// SaveDraftRequest exports the draft save request DTO.
type SaveDraftRequest = drafts.SaveRequest

// ValidateDraftRequest exports the draft validation request DTO.
type ValidateDraftRequest = drafts.ValidateRequest

// ValidationResult exports the draft validation outcome DTO.
type ValidationResult = drafts.ValidationResult

// PublisherService exports the publish/restore contract.
type PublisherService = publisher.Service

// PublishPageRequest exports the page publish request DTO.
type PublishPageRequest = publisher.PublishPageRequest

// PublishBlockRequest exports the global block publish request DTO.
type PublishBlockRequest = publisher.PublishBlockRequest

// RestoreRequest exports the version restore request DTO.
type RestoreRequest = publisher.RestoreRequest

// PublishResult exports the page publish outcome DTO.
type PublishResult = publisher.PublishResult

// BlockPublishResult exports the block publish outcome DTO.
type BlockPublishResult = publisher.BlockPublishResult

// PreviewService exports the preview resolver contract.
type PreviewService = preview.Service

// PreviewRequest exports the preview request DTO.
type PreviewRequest = preview.Request

// PreviewResponse exports the preview response DTO.
type PreviewResponse = preview.Response

// UsageService exports the usage index contract.
type UsageService = usage.Service

// HistoryService exports the version history reader contract.
type HistoryService = history.Service

// HistoryListOptions exports the version list pagination options.
type HistoryListOptions = history.ListOptions

// AuditRecorder exports the audit log contract.
type AuditRecorder = audit.Recorder

// Worker exports the cascade worker draining republish jobs.
type Worker = jobs.Worker

// Commands exports the command handler bundle.
type Commands = di.Commands

// BlockRegistry exports the block type schema registry.
type BlockRegistry = blocks.Registry

// Module represents the top level publish runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a publish module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Pages returns the configured page catalog service.
func (m *Module) Pages() PageService {
	return m.container.PageService()
}

// Blocks returns the configured global block catalog service.
func (m *Module) Blocks() BlockService {
	return m.container.BlockService()
}

// Drafts returns the configured draft service.
func (m *Module) Drafts() DraftService {
	return m.container.DraftService()
}

// Publisher returns the configured publish service.
func (m *Module) Publisher() PublisherService {
	return m.container.PublisherService()
}

// Preview returns the configured preview resolver.
func (m *Module) Preview() PreviewService {
	return m.container.PreviewService()
}

// Usage returns the configured usage index service.
func (m *Module) Usage() UsageService {
	return m.container.UsageService()
}

// History returns the configured version history reader.
func (m *Module) History() HistoryService {
	return m.container.HistoryService()
}

// Audit returns the configured audit recorder.
func (m *Module) Audit() AuditRecorder {
	return m.container.Auditor()
}

// Scheduler returns the scheduler used for cascade automation.
func (m *Module) Scheduler() interfaces.Scheduler {
	return m.container.Scheduler()
}

// CascadeWorker returns the worker draining republish jobs.
func (m *Module) CascadeWorker() *Worker {
	return m.container.Worker()
}

// Commands returns the command handler bundle, nil unless the feature is enabled.
func (m *Module) Commands() *Commands {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Commands()
}

// Registry returns the block type schema registry.
func (m *Module) Registry() *BlockRegistry {
	return m.container.Registry()
}
