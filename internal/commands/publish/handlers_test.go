package publishcmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-publish/internal/commands"
	"github.com/goliatone/go-publish/internal/diff"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/logging"
	"github.com/goliatone/go-publish/internal/publisher"
)

type stubPublisherService struct {
	pageRequests    []publisher.PublishPageRequest
	blockRequests   []publisher.PublishBlockRequest
	restoreRequests []publisher.RestoreRequest

	pageErr    error
	blockErr   error
	restoreErr error
}

func (s *stubPublisherService) PublishPage(ctx context.Context, req publisher.PublishPageRequest) (*publisher.PublishResult, error) {
	s.pageRequests = append(s.pageRequests, req)
	if s.pageErr != nil {
		return nil, s.pageErr
	}
	return &publisher.PublishResult{Version: 1}, nil
}

func (s *stubPublisherService) PublishGlobalBlock(ctx context.Context, req publisher.PublishBlockRequest) (*publisher.BlockPublishResult, error) {
	s.blockRequests = append(s.blockRequests, req)
	if s.blockErr != nil {
		return nil, s.blockErr
	}
	return &publisher.BlockPublishResult{Version: 1}, nil
}

func (s *stubPublisherService) RestoreVersion(ctx context.Context, req publisher.RestoreRequest) (*drafts.Draft, error) {
	s.restoreRequests = append(s.restoreRequests, req)
	if s.restoreErr != nil {
		return nil, s.restoreErr
	}
	return &drafts.Draft{EntityType: req.EntityType, EntityID: req.EntityID}, nil
}

func (s *stubPublisherService) DiffDraft(context.Context, domain.EntityType, uuid.UUID) ([]diff.Entry, error) {
	return nil, errors.New("not implemented")
}

func TestPublishPageHandlerExecutesService(t *testing.T) {
	service := &stubPublisherService{}
	logger := commands.CommandLogger(nil, "pages")
	handler := NewPublishPageHandler(service, logger)

	pageID := uuid.New()
	expected := []diff.Entry{{Kind: diff.KindBlock, Change: diff.ChangeUpdated, BlockID: "hero"}}
	msg := PublishPageCommand{
		PageID:       pageID,
		ExpectedDiff: expected,
		Comment:      "spring refresh",
		Actor:        "alice",
	}

	if err := handler.Execute(context.Background(), msg); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(service.pageRequests) != 1 {
		t.Fatalf("expected one publish request, got %d", len(service.pageRequests))
	}
	req := service.pageRequests[0]
	if req.PageID != pageID || req.Actor != "alice" || req.Comment != "spring refresh" {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(req.ExpectedDiff) != 1 || req.ExpectedDiff[0].BlockID != expected[0].BlockID {
		t.Fatalf("expected diff carried through, got %+v", req.ExpectedDiff)
	}
}

func TestPublishPageHandlerValidationError(t *testing.T) {
	service := &stubPublisherService{}
	handler := NewPublishPageHandler(service, logging.NoOp())

	err := handler.Execute(context.Background(), PublishPageCommand{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(service.pageRequests) != 0 {
		t.Fatalf("expected no publish attempts, got %d", len(service.pageRequests))
	}
}

func TestPublishPageHandlerWrapsServiceError(t *testing.T) {
	service := &stubPublisherService{pageErr: errors.New("boom")}
	handler := NewPublishPageHandler(service, logging.NoOp())

	err := handler.Execute(context.Background(), PublishPageCommand{PageID: uuid.New(), Actor: "alice"})
	if err == nil {
		t.Fatal("expected execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestPublishBlockHandlerExecutesService(t *testing.T) {
	service := &stubPublisherService{}
	handler := NewPublishBlockHandler(service, commands.CommandLogger(nil, "blocks"))

	blockID := uuid.New()
	msg := PublishBlockCommand{BlockID: blockID, Actor: "bob"}
	if err := handler.Execute(context.Background(), msg); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(service.blockRequests) != 1 {
		t.Fatalf("expected one block publish request, got %d", len(service.blockRequests))
	}
	if req := service.blockRequests[0]; req.BlockID != blockID || req.Actor != "bob" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestPublishBlockHandlerValidationError(t *testing.T) {
	service := &stubPublisherService{}
	handler := NewPublishBlockHandler(service, logging.NoOp())

	err := handler.Execute(context.Background(), PublishBlockCommand{Actor: "bob"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(service.blockRequests) != 0 {
		t.Fatalf("expected no block publish attempts, got %d", len(service.blockRequests))
	}
}

func TestRestoreVersionHandlerExecutesService(t *testing.T) {
	service := &stubPublisherService{}
	handler := NewRestoreVersionHandler(service, commands.CommandLogger(nil, "history"))

	entityID := uuid.New()
	msg := RestoreVersionCommand{
		EntityType: domain.EntityTypePage,
		EntityID:   entityID,
		Version:    3,
		Actor:      "carol",
	}
	if err := handler.Execute(context.Background(), msg); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(service.restoreRequests) != 1 {
		t.Fatalf("expected one restore request, got %d", len(service.restoreRequests))
	}
	req := service.restoreRequests[0]
	if req.EntityID != entityID || req.Version != 3 || req.Actor != "carol" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestRestoreVersionHandlerValidationError(t *testing.T) {
	service := &stubPublisherService{}
	handler := NewRestoreVersionHandler(service, logging.NoOp())

	err := handler.Execute(context.Background(), RestoreVersionCommand{
		EntityType: domain.EntityTypePage,
		EntityID:   uuid.New(),
		Version:    0,
		Actor:      "carol",
	})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(service.restoreRequests) != 0 {
		t.Fatalf("expected no restore attempts, got %d", len(service.restoreRequests))
	}
}
