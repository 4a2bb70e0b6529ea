package service

import (
	"context"
	"fmt"
	"strings"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidSection        = common.NewError(common.KindValidation, "Invalid section")
	ErrApprovedEditAdminOnly = common.NewError(common.KindValidation, "Approved resources can be edited by admin only")
	ErrApprovedDelAdminOnly  = common.NewError(common.KindValidation, "Approved resources can be deleted by admin only")
)

type ResourceService struct {
	resourceRepo repository.ResourceRepository
	logger       *zap.Logger
}

func NewResourceService(resourceRepo repository.ResourceRepository, logger *zap.Logger) *ResourceService {
	return &ResourceService{resourceRepo: resourceRepo, logger: logger}
}

type CreateResourceRequest struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Note    string   `json:"note"`
	Section string   `json:"section"`
	Tags    []string `json:"tags"`
	Company string   `json:"company"`
}

type UpdateResourceRequest struct {
	Title   *string   `json:"title,omitempty"`
	URL     *string   `json:"url,omitempty"`
	Note    *string   `json:"note,omitempty"`
	Section *string   `json:"section,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
	Company *string   `json:"company,omitempty"`
}

// ResourceQuery is the public listing filter. Tags match any-of.
type ResourceQuery struct {
	Q       string
	Section string
	Tags    []string
	Company string
}

func (s *ResourceService) Create(ctx context.Context, actor *model.User, req CreateResourceRequest) (*model.Resource, error) {
	if !actor.IsMentor() && !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	title := strings.TrimSpace(req.Title)
	url := strings.TrimSpace(req.URL)
	section := model.ResourceSection(strings.TrimSpace(req.Section))
	if title == "" || url == "" || section == "" {
		return nil, ErrMissingFields
	}
	if !section.Valid() {
		return nil, ErrInvalidSection
	}

	res := &model.Resource{
		ID:        uuid.NewString(),
		Title:     title,
		URL:       url,
		Note:      strings.TrimSpace(req.Note),
		Section:   section,
		Tags:      model.NormalizeTags(req.Tags),
		Company:   strings.TrimSpace(req.Company),
		CreatedBy: actor.ID,
		Approved:  actor.IsAdmin(),
	}
	if err := s.resourceRepo.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// List returns approved resources only, newest first.
func (s *ResourceService) List(ctx context.Context, q ResourceQuery) ([]model.Resource, error) {
	approved := true
	filter := model.ResourceFilter{
		Query:    strings.TrimSpace(q.Q),
		Section:  model.ResourceSection(strings.TrimSpace(q.Section)),
		Tags:     model.NormalizeTags(q.Tags),
		Company:  strings.TrimSpace(q.Company),
		Approved: &approved,
		Limit:    repository.MaxResourceListing,
	}
	list, err := s.resourceRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return list, nil
}

// ListPending returns the moderation queue.
func (s *ResourceService) ListPending(ctx context.Context) ([]model.Resource, error) {
	approved := false
	list, err := s.resourceRepo.List(ctx, model.ResourceFilter{Approved: &approved, Limit: repository.MaxResourceListing})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending resources: %w", err)
	}
	return list, nil
}

// loadEditable enforces creator-or-admin, and admin-only once approved.
func (s *ResourceService) loadEditable(ctx context.Context, actor *model.User, id string, approvedErr error) (*model.Resource, error) {
	res, err := s.resourceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(res.CreatedBy) {
		return nil, common.ErrForbidden
	}
	if res.Approved && !actor.IsAdmin() {
		return nil, approvedErr
	}
	return res, nil
}

func (s *ResourceService) Update(ctx context.Context, actor *model.User, id string, req UpdateResourceRequest) (*model.Resource, error) {
	res, err := s.loadEditable(ctx, actor, id, ErrApprovedEditAdminOnly)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if res.Title = strings.TrimSpace(*req.Title); res.Title == "" {
			return nil, ErrMissingFields
		}
	}
	if req.URL != nil {
		if res.URL = strings.TrimSpace(*req.URL); res.URL == "" {
			return nil, ErrMissingFields
		}
	}
	if req.Note != nil {
		res.Note = strings.TrimSpace(*req.Note)
	}
	if req.Section != nil {
		section := model.ResourceSection(strings.TrimSpace(*req.Section))
		if !section.Valid() {
			return nil, ErrInvalidSection
		}
		res.Section = section
	}
	if req.Tags != nil {
		res.Tags = model.NormalizeTags(*req.Tags)
	}
	if req.Company != nil {
		res.Company = strings.TrimSpace(*req.Company)
	}

	if err := s.resourceRepo.Update(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to update resource: %w", err)
	}
	return res, nil
}

func (s *ResourceService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := s.loadEditable(ctx, actor, id, ErrApprovedDelAdminOnly); err != nil {
		return err
	}
	if err := s.resourceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	return nil
}

func (s *ResourceService) Approve(ctx context.Context, actor *model.User, id string) (*model.Resource, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	res, err := s.resourceRepo.Approve(ctx, id)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Click counts a visit. Failures are logged and never reported.
func (s *ResourceService) Click(ctx context.Context, id string) {
	if err := s.resourceRepo.IncrementClicks(ctx, id); err != nil {
		s.logger.Warn("failed to record resource click", zap.String("resource_id", id), zap.Error(err))
	}
}
