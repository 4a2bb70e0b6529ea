package service

import (
	"context"
	"fmt"
	"testing"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationOwnershipHasNoAdminBypass(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ann := f.addUser(t, "ann", model.RoleStudent)
	admin := f.addUser(t, "root", model.RoleAdmin)

	n, err := f.notifications.Notify(ctx, ann.ID, "custom", "hello", nil)
	require.NoError(t, err)

	_, err = f.notifications.MarkRead(ctx, admin, n.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.ErrorIs(t, f.notifications.Delete(ctx, admin, n.ID), common.ErrForbidden)

	read, err := f.notifications.MarkRead(ctx, ann, n.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	require.NoError(t, f.notifications.Delete(ctx, ann, n.ID))
	_, err = f.notifications.MarkRead(ctx, ann, n.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNotifyRequiresExistingTarget(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.notifications.Notify(context.Background(), "ghost", "custom", "hello", nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNotificationListIsNewestFiftyFirst(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ann := f.addUser(t, "ann", model.RoleStudent)
	for i := 0; i < NotificationListLimit+5; i++ {
		_, err := f.notifications.Notify(ctx, ann.ID, "custom", fmt.Sprintf("n%d", i), nil)
		require.NoError(t, err)
	}

	list, err := f.notifications.List(ctx, ann)
	require.NoError(t, err)
	require.Len(t, list, NotificationListLimit)
	assert.Equal(t, fmt.Sprintf("n%d", NotificationListLimit+4), list[0].Message)
}
