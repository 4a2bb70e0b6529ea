package service

import (
	"context"
	"errors"
	"fmt"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"
)

// AdminService holds the moderation operations. Routes reaching it are
// already restricted to admins.
type AdminService struct {
	userRepo  repository.UserRepository
	doubtRepo repository.DoubtRepository
	responses *ResponseService
}

func NewAdminService(userRepo repository.UserRepository, doubtRepo repository.DoubtRepository, responses *ResponseService) *AdminService {
	return &AdminService{userRepo: userRepo, doubtRepo: doubtRepo, responses: responses}
}

type SetPlacedRequest struct {
	IsPlaced *bool `json:"isPlaced"`
}

func noSuchUser(err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return ErrNoSuchUser
	}
	return err
}

func (s *AdminService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *AdminService) PromoteToMentor(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrMissingFields
	}
	if err := s.userRepo.UpdateRole(ctx, id, model.RoleMentor); err != nil {
		return nil, noSuchUser(err)
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, noSuchUser(err)
	}
	return user, nil
}

func (s *AdminService) SetPlaced(ctx context.Context, id string, req SetPlacedRequest) (*model.User, error) {
	if id == "" || req.IsPlaced == nil {
		return nil, ErrMissingFields
	}
	if err := s.userRepo.SetPlaced(ctx, id, *req.IsPlaced); err != nil {
		return nil, noSuchUser(err)
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, noSuchUser(err)
	}
	return user, nil
}

// DeleteUser removes the account only. Content it owns stays behind.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingFields
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return noSuchUser(err)
	}
	return nil
}

func (s *AdminService) ListDoubts(ctx context.Context) ([]model.Doubt, error) {
	doubts, err := s.doubtRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doubts: %w", err)
	}
	return doubts, nil
}

// FlagResponse removes a response regardless of its author.
func (s *AdminService) FlagResponse(ctx context.Context, id string) error {
	return s.responses.Remove(ctx, id)
}
