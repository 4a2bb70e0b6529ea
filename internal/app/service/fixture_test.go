package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"peer_coach/internal/common/security"
	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"
	"peer_coach/internal/domain/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store         *memory.Store
	tokens        *security.TokenManager
	auth          *AuthService
	doubts        *DoubtService
	responses     *ResponseService
	notifications *NotificationService
	resources     *ResourceService
	admin         *AdminService
	leaderboard   *LeaderboardService
}

func newFixture(t *testing.T, logger *zap.Logger) *fixture {
	t.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	store := memory.New()
	return newFixtureWith(t, store, store.Notifications(), logger)
}

func newFixtureWith(t *testing.T, store *memory.Store, notificationRepo repository.NotificationRepository, logger *zap.Logger) *fixture {
	t.Helper()
	tokens := security.NewTokenManager([]byte("test-secret"), time.Hour)
	notifications := NewNotificationService(notificationRepo, store.Users())
	responses := NewResponseService(store.Responses(), store.Doubts(), store.Users(), notifications, logger)
	return &fixture{
		store:         store,
		tokens:        tokens,
		auth:          NewAuthService(store.Users(), tokens),
		doubts:        NewDoubtService(store.Doubts(), store.Responses()),
		responses:     responses,
		notifications: notifications,
		resources:     NewResourceService(store.Resources(), logger),
		admin:         NewAdminService(store.Users(), store.Doubts(), responses),
		leaderboard:   NewLeaderboardService(store.Users()),
	}
}

// addUser stores a user directly, skipping bcrypt.
func (f *fixture) addUser(t *testing.T, username, role string) *model.User {
	t.Helper()
	u := &model.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.test",
		Role:     role,
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) reload(t *testing.T, u *model.User) *model.User {
	t.Helper()
	fresh, err := f.store.Users().FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	return fresh
}

type failingNotifications struct {
	repository.NotificationRepository
}

func (failingNotifications) Create(context.Context, *model.Notification) error {
	return errors.New("notification store down")
}
