package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var (
	ErrInvalidStatus     = common.NewError(common.KindValidation, "Invalid status")
	ErrInvalidResolution = common.NewError(common.KindValidation, "resolvedBy must reference a response of this doubt")
	ErrOpenWithResolver  = common.NewError(common.KindValidation, "An open doubt cannot have an accepted response")
)

type DoubtService struct {
	doubtRepo    repository.DoubtRepository
	responseRepo repository.ResponseRepository
}

func NewDoubtService(doubtRepo repository.DoubtRepository, responseRepo repository.ResponseRepository) *DoubtService {
	return &DoubtService{doubtRepo: doubtRepo, responseRepo: responseRepo}
}

type CreateDoubtRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateDoubtRequest applies only the fields that are present.
// An empty ResolvedBy clears the accepted response.
type UpdateDoubtRequest struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Tags        *[]string          `json:"tags,omitempty"`
	Status      *model.DoubtStatus `json:"status,omitempty"`
	ResolvedBy  *string            `json:"resolvedBy,omitempty"`
}

func (s *DoubtService) Create(ctx context.Context, actor *model.User, req CreateDoubtRequest) (*model.Doubt, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	doubt := &model.Doubt{
		ID:               uuid.NewString(),
		Title:            title,
		Slug:             slug.Make(title),
		Description:      req.Description,
		PostedBy:         actor.ID,
		PostedByUsername: actor.Username,
		Tags:             []string{},
		Status:           model.DoubtStatusOpen,
	}
	if err := s.doubtRepo.Create(ctx, doubt); err != nil {
		return nil, fmt.Errorf("failed to create doubt: %w", err)
	}
	return doubt, nil
}

func (s *DoubtService) List(ctx context.Context) ([]model.Doubt, error) {
	doubts, err := s.doubtRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doubts: %w", err)
	}
	return doubts, nil
}

func (s *DoubtService) Get(ctx context.Context, id string) (*model.DoubtDetail, error) {
	doubt, err := s.doubtRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	responses, err := s.responseRepo.ListByDoubt(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return &model.DoubtDetail{Doubt: doubt, Responses: responses}, nil
}

// loadOwned fetches a doubt the actor may modify.
func (s *DoubtService) loadOwned(ctx context.Context, actor *model.User, id string) (*model.Doubt, error) {
	doubt, err := s.doubtRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(doubt.PostedBy) {
		return nil, ErrNotOwner
	}
	return doubt, nil
}

func (s *DoubtService) Update(ctx context.Context, actor *model.User, id string, req UpdateDoubtRequest) (*model.Doubt, error) {
	doubt, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		doubt.Title = title
		doubt.Slug = slug.Make(title)
	}
	if req.Description != nil {
		doubt.Description = *req.Description
	}
	if req.Tags != nil {
		doubt.Tags = model.NormalizeTags(*req.Tags)
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		doubt.Status = *req.Status
		if doubt.Status == model.DoubtStatusOpen {
			doubt.ResolvedBy = nil
		}
	}
	if req.ResolvedBy != nil {
		if err := s.applyResolution(ctx, doubt, strings.TrimSpace(*req.ResolvedBy), req.Status); err != nil {
			return nil, err
		}
	}

	if err := s.doubtRepo.Update(ctx, doubt); err != nil {
		return nil, fmt.Errorf("failed to update doubt: %w", err)
	}
	return doubt, nil
}

func (s *DoubtService) applyResolution(ctx context.Context, doubt *model.Doubt, responseID string, status *model.DoubtStatus) error {
	if responseID == "" {
		doubt.ResolvedBy = nil
		if status == nil {
			doubt.Status = model.DoubtStatusOpen
		}
		return nil
	}
	if status != nil && *status == model.DoubtStatusOpen {
		return ErrOpenWithResolver
	}
	resp, err := s.responseRepo.FindByID(ctx, responseID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return ErrInvalidResolution
		}
		return fmt.Errorf("failed to load accepted response: %w", err)
	}
	if resp.DoubtID != doubt.ID {
		return ErrInvalidResolution
	}
	doubt.ResolvedBy = &responseID
	doubt.Status = model.DoubtStatusResolved
	return nil
}

// Delete removes the doubt's responses first, then the doubt.
func (s *DoubtService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := s.loadOwned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.responseRepo.DeleteByDoubt(ctx, id); err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}
	if err := s.doubtRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete doubt: %w", err)
	}
	return nil
}
