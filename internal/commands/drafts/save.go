package draftscmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/commands"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

const saveDraftMessageType = "publish.drafts.save"

// SaveDraftCommand overwrites an entity's mutable draft. ExpectedVersion must
// match the stored draft version or the save is rejected as a conflict.
type SaveDraftCommand struct {
	EntityType      domain.EntityType         `json:"entity_type"`
	EntityID        uuid.UUID                 `json:"entity_id"`
	ExpectedVersion int                       `json:"expected_version"`
	Data            content.Snapshot          `json:"data"`
	Meta            map[string]map[string]any `json:"meta,omitempty"`
	Comment         string                    `json:"comment,omitempty"`
	ReviewStatus    domain.ReviewStatus       `json:"review_status,omitempty"`
	Actor           string                    `json:"actor"`
}

// Type implements command.Message.
func (SaveDraftCommand) Type() string { return saveDraftMessageType }

// Validate ensures the command carries the required identifiers before reaching handlers.
func (m SaveDraftCommand) Validate() error {
	errs := validation.Errors{}
	if !domain.ValidEntityType(m.EntityType) {
		errs["entity_type"] = validation.NewError("publish.drafts.save.entity_type_invalid", "entity_type must be page or global_block")
	}
	if m.EntityID == uuid.Nil {
		errs["entity_id"] = validation.NewError("publish.drafts.save.entity_id_required", "entity_id is required")
	}
	if m.ExpectedVersion < 0 {
		errs["expected_version"] = validation.NewError("publish.drafts.save.expected_version_invalid", "expected_version must be zero or greater")
	}
	if m.ReviewStatus != "" && !domain.ValidReviewStatus(m.ReviewStatus) {
		errs["review_status"] = validation.NewError("publish.drafts.save.review_status_invalid", "review_status is not a known value")
	}
	if strings.TrimSpace(m.Actor) == "" {
		errs["actor"] = validation.NewError("publish.drafts.save.actor_required", "actor is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SaveDraftHandler persists draft saves via the draft service using the shared
// command handler foundation.
type SaveDraftHandler struct {
	inner *commands.Handler[SaveDraftCommand]
}

// NewSaveDraftHandler constructs a handler wired to the provided draft service.
func NewSaveDraftHandler(service drafts.Service, logger interfaces.Logger, opts ...commands.HandlerOption[SaveDraftCommand]) *SaveDraftHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg SaveDraftCommand) error {
		_, err := service.Save(ctx, drafts.SaveRequest{
			EntityType:      msg.EntityType,
			EntityID:        msg.EntityID,
			ExpectedVersion: msg.ExpectedVersion,
			Data:            msg.Data,
			Meta:            msg.Meta,
			Comment:         msg.Comment,
			ReviewStatus:    msg.ReviewStatus,
			Actor:           msg.Actor,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[SaveDraftCommand]{
		commands.WithLogger[SaveDraftCommand](baseLogger),
		commands.WithOperation[SaveDraftCommand]("drafts.save"),
		commands.WithMessageFields(func(msg SaveDraftCommand) map[string]any {
			fields := map[string]any{
				"entity_type":      string(msg.EntityType),
				"expected_version": msg.ExpectedVersion,
			}
			if msg.EntityID != uuid.Nil {
				fields["entity_id"] = msg.EntityID
			}
			if actor := strings.TrimSpace(msg.Actor); actor != "" {
				fields["actor"] = actor
			}
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SaveDraftHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SaveDraftCommand].Execute.
func (h *SaveDraftHandler) Execute(ctx context.Context, msg SaveDraftCommand) error {
	return h.inner.Execute(ctx, msg)
}
