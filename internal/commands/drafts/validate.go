package draftscmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/commands"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

const validateDraftMessageType = "publish.drafts.validate"

// ValidateDraftCommand checks a candidate payload without mutating any state.
// The handler fails with a ValidationFailedError carrying every field error
// when the payload is invalid, so callers can surface the complete list.
type ValidateDraftCommand struct {
	EntityType domain.EntityType         `json:"entity_type"`
	EntityID   uuid.UUID                 `json:"entity_id"`
	Data       content.Snapshot          `json:"data"`
	Meta       map[string]map[string]any `json:"meta,omitempty"`
}

// Type implements command.Message.
func (ValidateDraftCommand) Type() string { return validateDraftMessageType }

// Validate ensures the command names the entity whose payload is being checked.
func (m ValidateDraftCommand) Validate() error {
	errs := validation.Errors{}
	if !domain.ValidEntityType(m.EntityType) {
		errs["entity_type"] = validation.NewError("publish.drafts.validate.entity_type_invalid", "entity_type must be page or global_block")
	}
	if m.EntityID == uuid.Nil {
		errs["entity_id"] = validation.NewError("publish.drafts.validate.entity_id_required", "entity_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateDraftHandler runs payload validation via the draft service.
type ValidateDraftHandler struct {
	inner *commands.Handler[ValidateDraftCommand]
}

// NewValidateDraftHandler constructs a handler wired to the provided draft service.
func NewValidateDraftHandler(service drafts.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ValidateDraftCommand]) *ValidateDraftHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ValidateDraftCommand) error {
		result, err := service.Validate(ctx, drafts.ValidateRequest{
			EntityType: msg.EntityType,
			EntityID:   msg.EntityID,
			Data:       msg.Data,
			Meta:       msg.Meta,
		})
		if err != nil {
			return err
		}
		if !result.Valid {
			return &drafts.ValidationFailedError{Errors: result.Errors}
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ValidateDraftCommand]{
		commands.WithLogger[ValidateDraftCommand](baseLogger),
		commands.WithOperation[ValidateDraftCommand]("drafts.validate"),
		commands.WithMessageFields(func(msg ValidateDraftCommand) map[string]any {
			fields := map[string]any{
				"entity_type": string(msg.EntityType),
				"blocks":      len(msg.Data.Blocks),
			}
			if msg.EntityID != uuid.Nil {
				fields["entity_id"] = msg.EntityID
			}
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ValidateDraftHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ValidateDraftCommand].Execute.
func (h *ValidateDraftHandler) Execute(ctx context.Context, msg ValidateDraftCommand) error {
	return h.inner.Execute(ctx, msg)
}
