package publishcmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-publish/internal/commands"
	"github.com/goliatone/go-publish/internal/diff"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/internal/publisher"
	"github.com/goliatone/go-publish/pkg/interfaces"
)

const publishBlockMessageType = "publish.blocks.publish"

// PublishBlockCommand publishes a global block's pending draft and triggers
// the dependent-page republish cascade.
type PublishBlockCommand struct {
	BlockID      uuid.UUID    `json:"block_id"`
	ExpectedDiff []diff.Entry `json:"expected_diff,omitempty"`
	Comment      string       `json:"comment,omitempty"`
	Actor        string       `json:"actor"`
}

// Type implements command.Message.
func (PublishBlockCommand) Type() string { return publishBlockMessageType }

// Validate ensures the command captures the required identifiers before reaching handlers.
func (m PublishBlockCommand) Validate() error {
	errs := validation.Errors{}
	if m.BlockID == uuid.Nil {
		errs["block_id"] = validation.NewError("publish.blocks.publish.block_id_required", "block_id is required")
	}
	if strings.TrimSpace(m.Actor) == "" {
		errs["actor"] = validation.NewError("publish.blocks.publish.actor_required", "actor is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PublishBlockHandler publishes block drafts via the publisher service.
type PublishBlockHandler struct {
	inner *commands.Handler[PublishBlockCommand]
}

// NewPublishBlockHandler constructs a handler wired to the provided publisher service.
func NewPublishBlockHandler(service publisher.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishBlockCommand]) *PublishBlockHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg PublishBlockCommand) error {
		_, err := service.PublishGlobalBlock(ctx, publisher.PublishBlockRequest{
			BlockID:      msg.BlockID,
			ExpectedDiff: msg.ExpectedDiff,
			Comment:      msg.Comment,
			Actor:        msg.Actor,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[PublishBlockCommand]{
		commands.WithLogger[PublishBlockCommand](baseLogger),
		commands.WithOperation[PublishBlockCommand]("blocks.publish"),
		commands.WithMessageFields(func(msg PublishBlockCommand) map[string]any {
			fields := map[string]any{}
			if msg.BlockID != uuid.Nil {
				fields["block_id"] = msg.BlockID
			}
			if msg.ExpectedDiff != nil {
				fields["expected_changes"] = len(msg.ExpectedDiff)
			}
			if actor := strings.TrimSpace(msg.Actor); actor != "" {
				fields["actor"] = actor
			}
			if len(fields) == 0 {
				return nil
			}
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishBlockHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishBlockCommand].Execute.
func (h *PublishBlockHandler) Execute(ctx context.Context, msg PublishBlockCommand) error {
	return h.inner.Execute(ctx, msg)
}
