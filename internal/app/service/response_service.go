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
	"go.uber.org/zap"
)

// LikeReputation is credited to a response's author for every like.
const LikeReputation = 10

var (
	ErrEmptyResponse     = common.NewError(common.KindValidation, "Content or attachments required")
	ErrAttachmentMissing = common.NewError(common.KindValidation, "Attachment url required")
)

type ResponseService struct {
	responseRepo  repository.ResponseRepository
	doubtRepo     repository.DoubtRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
	logger        *zap.Logger
}

func NewResponseService(
	responseRepo repository.ResponseRepository,
	doubtRepo repository.DoubtRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *ResponseService {
	return &ResponseService{
		responseRepo:  responseRepo,
		doubtRepo:     doubtRepo,
		userRepo:      userRepo,
		notifications: notifications,
		logger:        logger,
	}
}

type CreateResponseRequest struct {
	Content     string             `json:"content"`
	Attachments []model.Attachment `json:"attachments"`
}

type UpdateResponseRequest struct {
	Content     *string             `json:"content,omitempty"`
	Attachments *[]model.Attachment `json:"attachments,omitempty"`
}

func cleanAttachments(in []model.Attachment) ([]model.Attachment, error) {
	out := make([]model.Attachment, 0, len(in))
	for _, a := range in {
		a.URL = strings.TrimSpace(a.URL)
		if a.URL == "" {
			return nil, ErrAttachmentMissing
		}
		a.Type = strings.TrimSpace(a.Type)
		out = append(out, a)
	}
	return out, nil
}

func (s *ResponseService) Create(ctx context.Context, actor *model.User, doubtID string, req CreateResponseRequest) (*model.Response, error) {
	doubt, err := s.doubtRepo.FindByID(ctx, doubtID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrDoubtNotFound
		}
		return nil, fmt.Errorf("failed to load doubt: %w", err)
	}

	attachments, err := cleanAttachments(req.Attachments)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" && len(attachments) == 0 {
		return nil, ErrEmptyResponse
	}

	resp := &model.Response{
		ID:             uuid.NewString(),
		DoubtID:        doubt.ID,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		AuthorRole:     actor.Role,
		Content:        req.Content,
		Attachments:    attachments,
		IsByMentor:     actor.IsMentor() || actor.IsPlaced,
	}
	if err := s.responseRepo.Create(ctx, resp); err != nil {
		return nil, fmt.Errorf("failed to create response: %w", err)
	}

	// Best effort: the response stands even if the notification fails.
	payload := model.NewResponsePayload{DoubtID: doubt.ID, ResponseID: resp.ID}
	message := "New response to your doubt: " + doubt.Title
	if _, err := s.notifications.Notify(ctx, doubt.PostedBy, model.NotificationTypeNewResponse, message, payload); err != nil {
		s.logger.Warn("failed to notify doubt owner",
			zap.String("doubt_id", doubt.ID),
			zap.String("response_id", resp.ID),
			zap.Error(err))
	}
	return resp, nil
}

func (s *ResponseService) ListByDoubt(ctx context.Context, doubtID string) ([]model.Response, error) {
	list, err := s.responseRepo.ListByDoubt(ctx, doubtID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return list, nil
}

func (s *ResponseService) ListByAuthor(ctx context.Context, authorID string) ([]model.Response, error) {
	list, err := s.responseRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return list, nil
}

func (s *ResponseService) loadOwned(ctx context.Context, actor *model.User, id string) (*model.Response, error) {
	resp, err := s.responseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(resp.AuthorID) {
		return nil, ErrNotOwner
	}
	return resp, nil
}

func (s *ResponseService) Update(ctx context.Context, actor *model.User, id string, req UpdateResponseRequest) (*model.Response, error) {
	resp, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Content != nil {
		resp.Content = *req.Content
	}
	if req.Attachments != nil {
		attachments, err := cleanAttachments(*req.Attachments)
		if err != nil {
			return nil, err
		}
		resp.Attachments = attachments
	}
	if strings.TrimSpace(resp.Content) == "" && len(resp.Attachments) == 0 {
		return nil, ErrEmptyResponse
	}
	if err := s.responseRepo.Update(ctx, resp); err != nil {
		return nil, fmt.Errorf("failed to update response: %w", err)
	}
	return resp, nil
}

func (s *ResponseService) Delete(ctx context.Context, actor *model.User, id string) error {
	resp, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, resp)
}

// Remove deletes a response without an ownership check.
func (s *ResponseService) Remove(ctx context.Context, id string) error {
	resp, err := s.responseRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, resp)
}

// remove deletes resp and reopens its doubt if resp was the accepted answer.
// Notifications that point at resp are left in place.
func (s *ResponseService) remove(ctx context.Context, resp *model.Response) error {
	if err := s.responseRepo.Delete(ctx, resp.ID); err != nil {
		return fmt.Errorf("failed to delete response: %w", err)
	}
	reopened, err := s.doubtRepo.ClearResolution(ctx, resp.DoubtID, resp.ID)
	if err != nil {
		s.logger.Warn("failed to reopen doubt after deleting its accepted response",
			zap.String("doubt_id", resp.DoubtID),
			zap.String("response_id", resp.ID),
			zap.Error(err))
		return nil
	}
	if reopened {
		s.logger.Info("doubt reopened", zap.String("doubt_id", resp.DoubtID), zap.String("response_id", resp.ID))
	}
	return nil
}

// Like is an open counter: anyone, the author included, may like any
// number of times. Each like credits the author with LikeReputation.
func (s *ResponseService) Like(ctx context.Context, id string) (*model.Response, error) {
	resp, err := s.responseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	likes, err := s.responseRepo.IncrementLikes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to like response: %w", err)
	}
	resp.Likes = likes

	if err := s.userRepo.AddReputation(ctx, resp.AuthorID, LikeReputation); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Warn("failed to credit author reputation",
			zap.String("response_id", resp.ID),
			zap.String("author_id", resp.AuthorID),
			zap.Error(err))
	}
	return resp, nil
}
