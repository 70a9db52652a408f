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

const publishPageMessageType = "publish.pages.publish"

// PublishPageCommand freezes a page's pending draft into version history.
// ExpectedDiff, when set, must match the diff computed at publish time or the
// publish is rejected as stale.
type PublishPageCommand struct {
	PageID       uuid.UUID    `json:"page_id"`
	ExpectedDiff []diff.Entry `json:"expected_diff,omitempty"`
	Comment      string       `json:"comment,omitempty"`
	Actor        string       `json:"actor"`
}

// Type implements command.Message.
func (PublishPageCommand) Type() string { return publishPageMessageType }

// Validate ensures the command captures the required identifiers before reaching handlers.
func (m PublishPageCommand) Validate() error {
	errs := validation.Errors{}
	if m.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("publish.pages.publish.page_id_required", "page_id is required")
	}
	if strings.TrimSpace(m.Actor) == "" {
		errs["actor"] = validation.NewError("publish.pages.publish.actor_required", "actor is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PublishPageHandler publishes page drafts via the publisher service using the
// shared command handler foundation.
type PublishPageHandler struct {
	inner *commands.Handler[PublishPageCommand]
}

// NewPublishPageHandler constructs a handler wired to the provided publisher service.
func NewPublishPageHandler(service publisher.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishPageCommand]) *PublishPageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg PublishPageCommand) error {
		_, err := service.PublishPage(ctx, publisher.PublishPageRequest{
			PageID:       msg.PageID,
			ExpectedDiff: msg.ExpectedDiff,
			Comment:      msg.Comment,
			Actor:        msg.Actor,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[PublishPageCommand]{
		commands.WithLogger[PublishPageCommand](baseLogger),
		commands.WithOperation[PublishPageCommand]("pages.publish"),
		commands.WithMessageFields(func(msg PublishPageCommand) map[string]any {
			fields := map[string]any{}
			if msg.PageID != uuid.Nil {
				fields["page_id"] = msg.PageID
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

	return &PublishPageHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishPageCommand].Execute.
func (h *PublishPageHandler) Execute(ctx context.Context, msg PublishPageCommand) error {
	return h.inner.Execute(ctx, msg)
}
