package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"

	"github.com/google/uuid"
)

// NotificationListLimit is how many notifications List returns.
const NotificationListLimit = 50

type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo, userRepo: userRepo}
}

// Notify stores a notification for userID. The target user must exist.
func (s *NotificationService) Notify(ctx context.Context, userID, kind, message string, data any) (*model.Notification, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, fmt.Errorf("failed to find notification target: %w", err)
	}

	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode notification data: %w", err)
		}
		raw = b
	}

	n := &model.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    kind,
		Message: message,
		Data:    raw,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

func (s *NotificationService) List(ctx context.Context, actor *model.User) ([]model.Notification, error) {
	list, err := s.notificationRepo.ListByUser(ctx, actor.ID, NotificationListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// loadOwn fetches a notification addressed to the actor. Admins get no bypass.
func (s *NotificationService) loadOwn(ctx context.Context, actor *model.User, id string) (*model.Notification, error) {
	n, err := s.notificationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != actor.ID {
		return nil, ErrNotOwner
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor *model.User, id string) (*model.Notification, error) {
	n, err := s.loadOwn(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.notificationRepo.MarkRead(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n.Read = true
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := s.loadOwn(ctx, actor, id); err != nil {
		return err
	}
	if err := s.notificationRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}
