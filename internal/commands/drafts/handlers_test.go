package draftscmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-publish/content"
	"github.com/goliatone/go-publish/internal/commands"
	"github.com/goliatone/go-publish/internal/domain"
	"github.com/goliatone/go-publish/internal/drafts"
	"github.com/goliatone/go-publish/internal/logging"
)

type stubDraftService struct {
	saveRequests     []drafts.SaveRequest
	validateRequests []drafts.ValidateRequest

	saveErr        error
	validateResult *drafts.ValidationResult
}

func (s *stubDraftService) Get(context.Context, domain.EntityType, uuid.UUID) (*drafts.Draft, error) {
	return nil, errors.New("not implemented")
}

func (s *stubDraftService) Save(ctx context.Context, req drafts.SaveRequest) (*drafts.Draft, error) {
	s.saveRequests = append(s.saveRequests, req)
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	return &drafts.Draft{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Version:    req.ExpectedVersion + 1,
	}, nil
}

func (s *stubDraftService) Validate(ctx context.Context, req drafts.ValidateRequest) (*drafts.ValidationResult, error) {
	s.validateRequests = append(s.validateRequests, req)
	if s.validateResult != nil {
		return s.validateResult, nil
	}
	return &drafts.ValidationResult{Valid: true, Data: req.Data, Meta: req.Meta}, nil
}

func heroSnapshot() content.Snapshot {
	return content.Snapshot{
		Blocks: []content.Block{
			{ID: "hero", Type: "hero", Payload: map[string]any{"title": "Welcome"}},
		},
	}
}

func TestSaveDraftHandlerExecutesService(t *testing.T) {
	service := &stubDraftService{}
	logger := commands.CommandLogger(nil, "drafts")
	handler := NewSaveDraftHandler(service, logger)

	entityID := uuid.New()
	msg := SaveDraftCommand{
		EntityType:      domain.EntityTypePage,
		EntityID:        entityID,
		ExpectedVersion: 2,
		Data:            heroSnapshot(),
		Comment:         "tighten hero copy",
		Actor:           "alice",
	}

	if err := handler.Execute(context.Background(), msg); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(service.saveRequests) != 1 {
		t.Fatalf("expected one save request, got %d", len(service.saveRequests))
	}
	req := service.saveRequests[0]
	if req.EntityID != entityID || req.ExpectedVersion != 2 || req.Actor != "alice" {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(req.Data.Blocks) != 1 || req.Data.Blocks[0].ID != "hero" {
		t.Fatalf("expected snapshot carried through, got %+v", req.Data)
	}
}

func TestSaveDraftHandlerValidationError(t *testing.T) {
	service := &stubDraftService{}
	handler := NewSaveDraftHandler(service, logging.NoOp())

	err := handler.Execute(context.Background(), SaveDraftCommand{
		EntityType:      "widget",
		ExpectedVersion: -1,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(service.saveRequests) != 0 {
		t.Fatalf("expected no save attempts, got %d", len(service.saveRequests))
	}
}

func TestSaveDraftHandlerWrapsServiceError(t *testing.T) {
	service := &stubDraftService{saveErr: errors.New("version conflict")}
	handler := NewSaveDraftHandler(service, logging.NoOp())

	err := handler.Execute(context.Background(), SaveDraftCommand{
		EntityType: domain.EntityTypePage,
		EntityID:   uuid.New(),
		Actor:      "alice",
	})
	if err == nil {
		t.Fatal("expected execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestValidateDraftHandlerPassesValidPayload(t *testing.T) {
	service := &stubDraftService{}
	handler := NewValidateDraftHandler(service, logging.NoOp())

	msg := ValidateDraftCommand{
		EntityType: domain.EntityTypeBlock,
		EntityID:   uuid.New(),
		Data:       heroSnapshot(),
	}
	if err := handler.Execute(context.Background(), msg); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(service.validateRequests) != 1 {
		t.Fatalf("expected one validate request, got %d", len(service.validateRequests))
	}
}

func TestValidateDraftHandlerSurfacesFieldErrors(t *testing.T) {
	service := &stubDraftService{
		validateResult: &drafts.ValidationResult{
			Valid: false,
			Errors: []drafts.FieldError{
				{Path: "blocks[0].payload.title", Message: "title is required"},
			},
		},
	}
	handler := NewValidateDraftHandler(service, logging.NoOp())

	err := handler.Execute(context.Background(), ValidateDraftCommand{
		EntityType: domain.EntityTypePage,
		EntityID:   uuid.New(),
	})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	var failed *drafts.ValidationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected ValidationFailedError, got %v", err)
	}
	if len(failed.Errors) != 1 || failed.Errors[0].Path != "blocks[0].payload.title" {
		t.Fatalf("expected field errors carried through, got %+v", failed.Errors)
	}
}
