package service

import (
	"context"
	"testing"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCreateResourceApprovalFollowsRole(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	student := f.addUser(t, "sam", model.RoleStudent)
	mentor := f.addUser(t, "mia", model.RoleMentor)
	admin := f.addUser(t, "root", model.RoleAdmin)
	req := func(url string) CreateResourceRequest {
		return CreateResourceRequest{Title: " Graphs ", URL: url, Section: "dsa", Tags: []string{"DP", " dp ", "Graphs"}, Company: " Acme "}
	}

	_, err := f.resources.Create(ctx, student, req("https://s"))
	assert.ErrorIs(t, err, common.ErrForbidden)

	byMentor, err := f.resources.Create(ctx, mentor, req("https://m"))
	require.NoError(t, err)
	assert.False(t, byMentor.Approved)
	assert.Equal(t, []string{"dp", "graphs"}, byMentor.Tags)
	assert.Equal(t, "Acme", byMentor.Company)
	assert.Equal(t, "Graphs", byMentor.Title)

	byAdmin, err := f.resources.Create(ctx, admin, req("https://a"))
	require.NoError(t, err)
	assert.True(t, byAdmin.Approved)

	_, err = f.resources.Create(ctx, admin, req("https://a"))
	require.Error(t, err)
	assert.Equal(t, "URL already exists", common.PublicMessage(err))

	_, err = f.resources.Create(ctx, admin, CreateResourceRequest{Title: "t", URL: "https://x"})
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = f.resources.Create(ctx, admin, CreateResourceRequest{Title: "t", URL: "https://x", Section: "poetry"})
	assert.ErrorIs(t, err, ErrInvalidSection)
}

func TestTagNormalizationIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	admin := f.addUser(t, "root", model.RoleAdmin)

	res, err := f.resources.Create(ctx, admin, CreateResourceRequest{Title: "t", URL: "https://x", Section: "dsa", Tags: []string{"DP", " dp ", "Graphs"}})
	require.NoError(t, err)
	require.Equal(t, []string{"dp", "graphs"}, res.Tags)

	again, err := f.resources.Update(ctx, admin, res.ID, UpdateResourceRequest{Tags: ptr(res.Tags)})
	require.NoError(t, err)
	assert.Equal(t, res.Tags, again.Tags)
}

func TestApprovedResourceIsAdminOnly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	mentor := f.addUser(t, "mia", model.RoleMentor)
	other := f.addUser(t, "max", model.RoleMentor)
	admin := f.addUser(t, "root", model.RoleAdmin)

	res, err := f.resources.Create(ctx, mentor, CreateResourceRequest{Title: "t", URL: "https://x", Section: "os"})
	require.NoError(t, err)

	_, err = f.resources.Update(ctx, other, res.ID, UpdateResourceRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, common.ErrForbidden)

	edited, err := f.resources.Update(ctx, mentor, res.ID, UpdateResourceRequest{Note: ptr(" while pending ")})
	require.NoError(t, err)
	assert.Equal(t, "while pending", edited.Note)

	_, err = f.resources.Approve(ctx, mentor, res.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = f.resources.Approve(ctx, admin, res.ID)
	require.NoError(t, err)
	approved, err := f.resources.Approve(ctx, admin, res.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)

	_, err = f.resources.Update(ctx, mentor, res.ID, UpdateResourceRequest{Title: ptr("changed")})
	assert.ErrorIs(t, err, ErrApprovedEditAdminOnly)
	assert.NotErrorIs(t, err, ErrApprovedDelAdminOnly)
	err = f.resources.Delete(ctx, mentor, res.ID)
	assert.ErrorIs(t, err, ErrApprovedDelAdminOnly)
	assert.NotErrorIs(t, err, ErrApprovedEditAdminOnly)
	assert.EqualError(t, err, "Approved resources can be deleted by admin only")

	unchanged, err := f.store.Resources().FindByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", unchanged.Title)

	_, err = f.resources.Update(ctx, admin, res.ID, UpdateResourceRequest{Title: ptr("by admin")})
	require.NoError(t, err)
	require.NoError(t, f.resources.Delete(ctx, admin, res.ID))

	_, err = f.resources.Approve(ctx, admin, res.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListNeverReturnsUnapproved(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	mentor := f.addUser(t, "mia", model.RoleMentor)
	admin := f.addUser(t, "root", model.RoleAdmin)

	_, err := f.resources.Create(ctx, mentor, CreateResourceRequest{Title: "Pending graphs", URL: "https://p", Section: "dsa", Tags: []string{"graphs"}, Company: "Acme"})
	require.NoError(t, err)
	_, err = f.resources.Create(ctx, admin, CreateResourceRequest{Title: "Paging", URL: "https://os", Section: "os", Note: "TLB basics", Company: "Acme"})
	require.NoError(t, err)
	_, err = f.resources.Create(ctx, admin, CreateResourceRequest{Title: "Graph theory", URL: "https://g", Section: "dsa", Tags: []string{"graphs"}})
	require.NoError(t, err)

	queries := []ResourceQuery{
		{},
		{Q: "graph"},
		{Section: "dsa"},
		{Tags: []string{"GRAPHS"}},
		{Company: " Acme "},
		{Q: "tlb"},
	}
	for _, q := range queries {
		list, err := f.resources.List(ctx, q)
		require.NoError(t, err)
		for _, r := range list {
			assert.True(t, r.Approved, "query %+v returned %s", q, r.Title)
		}
	}

	all, err := f.resources.List(ctx, ResourceQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Graph theory", all[0].Title)

	byNote, err := f.resources.List(ctx, ResourceQuery{Q: "TLB"})
	require.NoError(t, err)
	require.Len(t, byNote, 1)
	assert.Equal(t, "Paging", byNote[0].Title)

	pending, err := f.resources.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Pending graphs", pending[0].Title)
}

func TestClickSwallowsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, zap.New(core))
	ctx := context.Background()
	admin := f.addUser(t, "root", model.RoleAdmin)
	res, err := f.resources.Create(ctx, admin, CreateResourceRequest{Title: "t", URL: "https://x", Section: "cn"})
	require.NoError(t, err)

	f.resources.Click(ctx, res.ID)
	f.resources.Click(ctx, res.ID)
	f.resources.Click(ctx, "missing")

	got, err := f.store.Resources().FindByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Clicks)
	assert.Equal(t, 1, logs.Len())
}
