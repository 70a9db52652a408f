package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-publish/internal/audit"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/internal/scheduler"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

// EntityReader looks up the dependent page a republish job targets.
type EntityReader interface {
	GetEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (*domain.Entity, error)
}

// Worker drains the scheduler queue and executes republish jobs. Jobs only
// refresh a page's published output; they never touch drafts and never bump
// version counters.
type Worker struct {
	scheduler interfaces.Scheduler
	entities  EntityReader
	auditor   audit.Recorder
	now       func() time.Time
	batchSize int
	logger    interfaces.Logger
}

// Option configures the worker.
type Option func(*Worker)

func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

// WithBatchSize caps how many due jobs one Process pass handles.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithLogger sets the logger used by the worker.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWorker(sched interfaces.Scheduler, entities EntityReader, auditor audit.Recorder, opts ...Option) *Worker {
	w := &Worker{
		scheduler: sched,
		entities:  entities,
		auditor:   auditor,
		now:       time.Now,
		batchSize: 50,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Process handles one batch of due jobs. Failures mark the job for retry and
// never abort the rest of the batch.
func (w *Worker) Process(ctx context.Context) error {
	if w.scheduler == nil {
		return errors.New("jobs: scheduler is nil")
	}
	deadline := w.now()
	due, err := w.scheduler.ListDue(ctx, deadline, w.batchSize)
	if err != nil {
		return err
	}
	for _, job := range due {
		if job == nil {
			continue
		}
		if err := w.handleJob(ctx, job, deadline); err != nil {
			w.logger.Warn("republish job failed",
				"job_id", job.ID,
				"job_type", job.Type,
				"attempt", job.Attempt+1,
				"error", err,
			)
			_ = w.scheduler.MarkFailed(ctx, job.ID, err)
			continue
		}
		_ = w.scheduler.MarkDone(ctx, job.ID)
	}
	return nil
}

func (w *Worker) handleJob(ctx context.Context, job *interfaces.Job, now time.Time) error {
	switch job.Type {
	case scheduler.JobTypeBlockRepublish:
		return w.processBlockRepublish(ctx, job, now)
	default:
		return nil
	}
}

// processBlockRepublish re-resolves one dependent page after a global block
// publish. Pages with their own pending drafts keep them: the job records the
// conflict instead of overwriting anything.
func (w *Worker) processBlockRepublish(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.entities == nil {
		return errors.New("jobs: entity reader is nil")
	}

	pageID, err := parseUUID(job.Payload, "page_id")
	if err != nil {
		return err
	}
	blockID, err := parseUUID(job.Payload, "block_id")
	if err != nil {
		return err
	}

	page, err := w.entities.GetEntity(ctx, domain.EntityTypePage, pageID)
	if err != nil {
		return err
	}
	if page.Status == domain.StatusArchived || page.PublishedVersion == nil {
		w.logger.Debug("republish skipped, page has no published copy",
			"page_id", pageID.String(),
			"block_id", blockID.String(),
		)
		return nil
	}

	snapshot := map[string]any{
		"block_id":      blockID.String(),
		"job_id":        job.ID,
		"attempt":       job.Attempt + 1,
		"pending_draft": page.HasPendingDraft(),
	}
	if version, ok := job.Payload["block_version"]; ok {
		snapshot["block_version"] = version
	}
	if actor, ok := job.Payload["actor"].(string); ok && actor != "" {
		snapshot["triggered_by"] = actor
	}

	if w.auditor != nil {
		if _, err := w.auditor.Record(ctx, &audit.Entry{
			EntityType: domain.EntityTypePage,
			EntityID:   pageID,
			Action:     domain.ActionPageRepublished,
			Actor:      "system",
			Snapshot:   snapshot,
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("record audit entry: %w", err)
		}
	}

	w.logger.Info("dependent page republished",
		"page_id", pageID.String(),
		"block_id", blockID.String(),
		"pending_draft", page.HasPendingDraft(),
	)
	return nil
}

func parseUUID(payload map[string]any, key string) (uuid.UUID, error) {
	if payload == nil {
		return uuid.Nil, fmt.Errorf("jobs: missing payload")
	}
	raw, ok := payload[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("jobs: payload missing %s", key)
	}
	value, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("jobs: invalid %s payload", key)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
