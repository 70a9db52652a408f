package publishcmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-publish/internal/commands"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/internal/publisher"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

const restoreVersionMessageType = "publish.history.restore"

// RestoreVersionCommand copies a historical version into the entity's mutable
// draft. History is never rewritten; restoring only produces a new draft.
type RestoreVersionCommand struct {
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   uuid.UUID         `json:"entity_id"`
	Version    int               `json:"version"`
	Comment    string            `json:"comment,omitempty"`
	Actor      string            `json:"actor"`
}

// Type implements command.Message.
func (RestoreVersionCommand) Type() string { return restoreVersionMessageType }

// Validate ensures the command names an entity and a positive version number.
func (m RestoreVersionCommand) Validate() error {
	errs := validation.Errors{}
	if !domain.ValidEntityType(m.EntityType) {
		errs["entity_type"] = validation.NewError("publish.history.restore.entity_type_invalid", "entity_type must be page or global_block")
	}
	if m.EntityID == uuid.Nil {
		errs["entity_id"] = validation.NewError("publish.history.restore.entity_id_required", "entity_id is required")
	}
	if m.Version <= 0 {
		errs["version"] = validation.NewError("publish.history.restore.version_invalid", "version must be greater than zero")
	}
	if strings.TrimSpace(m.Actor) == "" {
		errs["actor"] = validation.NewError("publish.history.restore.actor_required", "actor is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RestoreVersionHandler restores historical versions via the publisher service.
type RestoreVersionHandler struct {
	inner *commands.Handler[RestoreVersionCommand]
}

// NewRestoreVersionHandler constructs a handler wired to the provided publisher service.
func NewRestoreVersionHandler(service publisher.Service, logger interfaces.Logger, opts ...commands.HandlerOption[RestoreVersionCommand]) *RestoreVersionHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg RestoreVersionCommand) error {
		_, err := service.RestoreVersion(ctx, publisher.RestoreRequest{
			EntityType: msg.EntityType,
			EntityID:   msg.EntityID,
			Version:    msg.Version,
			Comment:    msg.Comment,
			Actor:      msg.Actor,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[RestoreVersionCommand]{
		commands.WithLogger[RestoreVersionCommand](baseLogger),
		commands.WithOperation[RestoreVersionCommand]("history.restore"),
		commands.WithMessageFields(func(msg RestoreVersionCommand) map[string]any {
			fields := map[string]any{
				"entity_type": string(msg.EntityType),
				"version":     msg.Version,
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

	return &RestoreVersionHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RestoreVersionCommand].Execute.
func (h *RestoreVersionHandler) Execute(ctx context.Context, msg RestoreVersionCommand) error {
	return h.inner.Execute(ctx, msg)
}
