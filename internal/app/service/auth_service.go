package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"peer_coach/internal/common"
	"peer_coach/internal/common/security"
	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *security.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenManager) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           model.RoleStudent, // Default role
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrInvalidCredentials // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Me returns the caller as already resolved by the authentication middleware.
func (s *AuthService) Me(_ context.Context, actor *model.User) (*model.User, error) {
	if actor == nil {
		return nil, common.ErrUnauthorized
	}
	me := *actor
	me.HashedPassword = ""
	return &me, nil
}

// EnsureAdmin creates a verified admin account, or promotes the existing
// account registered under email.
func (s *AuthService) EnsureAdmin(ctx context.Context, req RegisterRequest) (*model.User, bool, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, false, ErrMissingFields
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.userRepo.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
			return nil, false, fmt.Errorf("failed to promote user: %w", err)
		}
		existing.Role = model.RoleAdmin
		existing.HashedPassword = ""
		return existing, false, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, false, ErrMissingFields
	}
	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           model.RoleAdmin,
		IsVerified:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	user.HashedPassword = ""
	return user, true, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = "" // Clear password before returning
	return &AuthResponse{User: user, Token: token}, nil
}
