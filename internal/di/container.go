package di

import (
	"errors"
	"fmt"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-publish/internal/audit"
	"github.com/goliatone/go-publish/internal/blocks"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/history"
	"github.com/goliatone/go-publish/internal/jobs"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/internal/logging/console"
	"github.com/goliatone/go-publish/internal/logging/gologger"
	"github.com/goliatone/go-publish/internal/pages"
	"github.com/goliatone/go-publish/internal/preview"
	"github.com/goliatone/go-publish/internal/publisher"
	"github.com/goliatone/go-publish/internal/runtimeconfig"
	"github.com/goliatone/go-publish/internal/scheduler"
	"github.com/goliatone/go-publish/internal/storage"
	"github.com/goliatone/go-publish/internal/usage"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

// ErrBunDBRequired indicates the bun storage driver was selected without a database handle.
var ErrBunDBRequired = errors.New("di: bun storage driver requires a database via WithBunDB")

// Container wires module dependencies from configuration: repositories,
// services, the scheduler and the cascade worker.
type Container struct {
	Config runtimeconfig.Config

	bunDB         *bun.DB
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	loggerProvider interfaces.LoggerProvider
	auth           interfaces.AuthProvider
	txRunner       interfaces.TxRunner
	sched          interfaces.Scheduler
	registry       *blocks.Registry

	pageRepo        pages.Repository
	blockRepo       blocks.Repository
	draftRepo       drafts.Repository
	historyRepo     history.Repository
	usageRepo       usage.Repository
	auditor         audit.Recorder
	auditorOverride bool

	pageSvc      pages.StoreService
	blockSvc     blocks.StoreService
	draftSvc     drafts.Service
	usageSvc     usage.Service
	historySvc   history.Service
	publisherSvc publisher.Service
	previewSvc   preview.Service
	worker       *jobs.Worker
}

// Option mutates the container before services are assembled.
type Option func(*Container)

// WithBunDB binds the container to a bun database handle.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the default repository cache bindings.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithAuthProvider binds the permission source consulted for gated publishes.
func WithAuthProvider(auth interfaces.AuthProvider) Option {
	return func(c *Container) {
		c.auth = auth
	}
}

// WithScheduler overrides the default scheduler binding.
func WithScheduler(sched interfaces.Scheduler) Option {
	return func(c *Container) {
		c.sched = sched
	}
}

// WithLoggerProvider overrides the logger provider resolved from config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBlockRegistry overrides the default empty block type registry.
func WithBlockRegistry(registry *blocks.Registry) Option {
	return func(c *Container) {
		c.registry = registry
	}
}

// WithAuditor overrides the default audit recorder binding.
func WithAuditor(recorder audit.Recorder) Option {
	return func(c *Container) {
		if recorder != nil {
			c.auditor = recorder
			c.auditorOverride = true
		}
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:      cfg,
		cacheTTL:    cacheTTL,
		registry:    blocks.NewRegistry(),
		pageRepo:    pages.NewMemoryRepository(),
		blockRepo:   blocks.NewMemoryRepository(),
		draftRepo:   drafts.NewMemoryRepository(),
		historyRepo: history.NewMemoryRepository(),
		usageRepo:   usage.NewMemoryRepository(),
		auditor:     audit.NewMemoryRecorder(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	if err := c.configureRepositories(); err != nil {
		return nil, err
	}
	c.configureScheduler()
	c.configureServices()

	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		minLevel := console.ParseLevel(c.Config.Logging.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &minLevel})
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() error {
	driver := strings.ToLower(strings.TrimSpace(c.Config.Storage.Driver))
	if driver != "bun" {
		c.txRunner = storage.NewMemoryTxRunner()
		return nil
	}
	if c.bunDB == nil {
		return ErrBunDBRequired
	}

	c.pageRepo = pages.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.blockRepo = blocks.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.historyRepo = history.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.draftRepo = drafts.NewBunRepository(c.bunDB)
	c.usageRepo = usage.NewBunRepository(c.bunDB)
	if !c.auditorOverride {
		c.auditor = audit.NewBunRecorder(c.bunDB)
	}
	c.txRunner = storage.NewBunTxRunner(c.bunDB)
	return nil
}

func (c *Container) configureScheduler() {
	if c.sched != nil {
		return
	}
	if !c.Config.Features.Cascade {
		c.sched = scheduler.NewNoOp()
		return
	}
	c.sched = scheduler.NewInMemory(
		scheduler.WithDefaultMaxAttempts(c.Config.Cascade.MaxAttempts),
	)
}

func (c *Container) configureServices() {
	provider := c.loggerProvider

	c.blockSvc = blocks.NewService(c.blockRepo, c.draftRepo, c.auditor,
		blocks.WithTxRunner(c.txRunner),
		blocks.WithLogger(logging.ModuleLogger(provider, "publish.blocks")),
	)

	published := historyReader{repo: c.historyRepo}

	c.pageSvc = pages.NewService(c.pageRepo, c.draftRepo, c.auditor,
		pages.WithBlockCatalog(c.blockSvc),
		pages.WithPublishedReader(published),
		pages.WithTxRunner(c.txRunner),
		pages.WithLogger(logging.ModuleLogger(provider, "publish.pages")),
	)

	c.usageSvc = usage.NewService(c.usageRepo, c.blockSvc,
		usage.WithPageSource(c.pageSvc),
		usage.WithLogger(logging.UsageLogger(provider)),
	)

	store := &entityStore{pages: c.pageSvc, blocks: c.blockSvc}

	c.draftSvc = drafts.NewService(c.draftRepo, store, c.usageSvc, c.auditor,
		drafts.WithSchemaProvider(c.registry),
		drafts.WithPublishedReader(published),
		drafts.WithTxRunner(c.txRunner),
		drafts.WithAuthProvider(c.auth),
		drafts.WithLogger(logging.DraftsLogger(provider)),
	)

	c.historySvc = history.NewService(c.historyRepo,
		history.WithLogger(logging.ModuleLogger(provider, "publish.history")),
	)

	publisherOpts := []publisher.ServiceOption{
		publisher.WithScheduler(c.sched),
		publisher.WithTxRunner(c.txRunner),
		publisher.WithCascadeMaxAttempts(c.Config.Cascade.MaxAttempts),
		publisher.WithLogger(logging.PublisherLogger(provider)),
	}
	if c.auth != nil {
		publisherOpts = append(publisherOpts, publisher.WithAuthProvider(c.auth))
	}
	c.publisherSvc = publisher.NewService(store, c.draftRepo, c.historyRepo, c.usageSvc, c.auditor, publisherOpts...)

	c.previewSvc = preview.NewService(store, c.draftRepo, c.historyRepo,
		preview.WithLayouts(c.Config.Preview.Layouts),
		preview.WithLogger(logging.PreviewLogger(provider)),
	)

	c.worker = jobs.NewWorker(c.sched, store, c.auditor,
		jobs.WithBatchSize(c.Config.Cascade.BatchSize),
		jobs.WithLogger(logging.JobsLogger(provider)),
	)
}

// PageService returns the configured page catalog service.
func (c *Container) PageService() pages.StoreService {
	return c.pageSvc
}

// BlockService returns the configured global block catalog service.
func (c *Container) BlockService() blocks.StoreService {
	return c.blockSvc
}

// DraftService returns the configured draft service.
func (c *Container) DraftService() drafts.Service {
	return c.draftSvc
}

// UsageService returns the configured usage index service.
func (c *Container) UsageService() usage.Service {
	return c.usageSvc
}

// HistoryService returns the configured version history reader.
func (c *Container) HistoryService() history.Service {
	return c.historySvc
}

// PublisherService returns the configured publish service.
func (c *Container) PublisherService() publisher.Service {
	return c.publisherSvc
}

// PreviewService returns the configured preview resolver.
func (c *Container) PreviewService() preview.Service {
	return c.previewSvc
}

// Worker returns the cascade worker draining republish jobs.
func (c *Container) Worker() *jobs.Worker {
	return c.worker
}

// Scheduler exposes the configured scheduler.
func (c *Container) Scheduler() interfaces.Scheduler {
	return c.sched
}

// Auditor exposes the configured audit recorder.
func (c *Container) Auditor() audit.Recorder {
	return c.auditor
}

// Registry exposes the block type registry for schema registration.
func (c *Container) Registry() *blocks.Registry {
	return c.registry
}

// TxRunner exposes the configured transaction runner.
func (c *Container) TxRunner() interfaces.TxRunner {
	return c.txRunner
}

// LoggerProvider exposes the resolved logger provider; nil when logging is disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// String summarises the container bindings for diagnostics.
func (c *Container) String() string {
	driver := strings.ToLower(strings.TrimSpace(c.Config.Storage.Driver))
	return fmt.Sprintf("publish.Container(driver=%s cascade=%t commands=%t)", driver, c.Config.Features.Cascade, c.Config.Features.Commands)
}
