package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"peer_coach/internal/app/service"
	"peer_coach/internal/common/security"
	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"
	"peer_coach/internal/domain/repository/memory"
	"peer_coach/internal/platform/metrics"
	"peer_coach/internal/platform/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *memory.Store
	auth    *service.AuthService
	mail    *queue.MailQueue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := memory.New()

	s := miniredis.RunT(t)
	rdb, err := queue.ConnectRedis(context.Background(), s.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	mail := queue.NewMailQueue(rdb, "mail_test")

	tokens := security.NewTokenManager([]byte("router-secret"), time.Hour)
	notifications := service.NewNotificationService(store.Notifications(), store.Users())
	responses := service.NewResponseService(store.Responses(), store.Doubts(), store.Users(), notifications, logger)
	resources := service.NewResourceService(store.Resources(), logger)
	auth := service.NewAuthService(store.Users(), tokens)

	h := NewRouter(Deps{
		Auth: auth,
		Verification: service.NewVerificationService(store.Users(), repository.NewRedisVerificationRepository(rdb), mail,
			service.VerificationOptions{TokenTTL: time.Hour, Cooldown: time.Minute, BaseURL: "https://coach.test"}, logger),
		Doubts:        service.NewDoubtService(store.Doubts(), store.Responses()),
		Responses:     responses,
		Notifications: notifications,
		Resources:     resources,
		Admin:         service.NewAdminService(store.Users(), store.Doubts(), responses),
		Leaderboard:   service.NewLeaderboardService(store.Users()),
		Users:         store.Users(),
		Tokens:        tokens,
		Metrics:       metrics.New(),
		Logger:        logger,
		CORSOrigins:   []string{"*"},
	})
	return &testServer{t: t, handler: h, store: store, auth: auth, mail: mail}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (ts *testServer) call(method, path, token string, body any) (int, envelope) {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

// register signs a user up through the API and returns its id and token.
func (ts *testServer) register(username string) (string, string) {
	ts.t.Helper()
	code, env := ts.call(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.test",
		"password": "pw-" + username,
	})
	require.Equal(ts.t, http.StatusCreated, code, env.Message)
	out := decode[service.AuthResponse](ts.t, env)
	return out.User.ID, out.Token
}

func (ts *testServer) admin() string {
	ts.t.Helper()
	_, _, err := ts.auth.EnsureAdmin(context.Background(), service.RegisterRequest{Username: "root", Email: "root@example.test", Password: "pw"})
	require.NoError(ts.t, err)
	resp, err := ts.auth.Login(context.Background(), service.LoginRequest{Email: "root@example.test", Password: "pw"})
	require.NoError(ts.t, err)
	return resp.Token
}

func TestScenarioA_ResponseNotifiesOwner(t *testing.T) {
	ts := newTestServer(t)
	_, uToken := ts.register("ursula")
	_, vToken := ts.register("victor")

	code, env := ts.call(http.MethodPost, "/doubts", uToken, map[string]string{"title": "Why TLB miss?"})
	require.Equal(t, http.StatusCreated, code)
	doubt := decode[model.Doubt](t, env)
	assert.Equal(t, model.DoubtStatusOpen, doubt.Status)

	code, env = ts.call(http.MethodPost, "/response/"+doubt.ID, vToken, map[string]string{"content": "A page-table walk."})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = ts.call(http.MethodGet, "/doubts/"+doubt.ID, uToken, nil)
	require.Equal(t, http.StatusOK, code)
	detail := decode[model.DoubtDetail](t, env)
	require.Len(t, detail.Responses, 1)
	assert.Equal(t, "victor", detail.Responses[0].AuthorUsername)
	assert.Equal(t, "ursula", detail.Doubt.PostedByUsername)

	code, env = ts.call(http.MethodGet, "/notifications", uToken, nil)
	require.Equal(t, http.StatusOK, code)
	notes := decode[[]model.Notification](t, env)
	require.Len(t, notes, 1)
	assert.False(t, notes[0].Read)
	assert.Equal(t, model.NotificationTypeNewResponse, notes[0].Type)
}

func TestScenarioB_PromotedMentorCreatesUnapprovedResource(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.admin()
	uID, uToken := ts.register("ursula")

	code, env := ts.call(http.MethodPut, "/admin/add-mentor/"+uID, adminToken, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, model.RoleMentor, decode[model.User](t, env).Role)

	code, env = ts.call(http.MethodGet, "/auth/me", uToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.RoleMentor, decode[model.User](t, env).Role)

	code, env = ts.call(http.MethodPost, "/resources", uToken, map[string]any{
		"title": "Paging", "url": "https://os.test/paging", "section": "os", "tags": []string{"DP", " dp ", "Graphs"},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	res := decode[model.Resource](t, env)
	assert.False(t, res.Approved)
	assert.Equal(t, []string{"dp", "graphs"}, res.Tags)

	code, env = ts.call(http.MethodGet, "/resources", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]model.Resource](t, env))

	code, env = ts.call(http.MethodGet, "/admin/resources/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]model.Resource](t, env), 1)

	code, _ = ts.call(http.MethodPost, "/resources/"+res.ID+"/approve", uToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = ts.call(http.MethodPost, "/resources/"+res.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = ts.call(http.MethodPatch, "/resources/"+res.ID, uToken, map[string]string{"title": "Changed"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Approved resources can be edited by admin only", env.Message)

	code, env = ts.call(http.MethodGet, "/resources?tags=GRAPHS,unknown", "", nil)
	require.Equal(t, http.StatusOK, code)
	listed := decode[[]model.Resource](t, env)
	require.Len(t, listed, 1)
	assert.Equal(t, "Paging", listed[0].Title)

	code, env = ts.call(http.MethodPost, "/resources", adminToken, map[string]any{
		"title": "Dup", "url": "https://os.test/paging", "section": "os",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "URL already exists", env.Message)
}

func TestScenarioC_LikesCreditReputation(t *testing.T) {
	ts := newTestServer(t)
	uID, uToken := ts.register("ursula")
	_, vToken := ts.register("victor")

	_, env := ts.call(http.MethodPost, "/doubts", vToken, map[string]string{"title": "q"})
	doubt := decode[model.Doubt](t, env)
	_, env = ts.call(http.MethodPost, "/response/"+doubt.ID, uToken, map[string]string{"content": "a"})
	resp := decode[model.Response](t, env)
	assert.Equal(t, 0, resp.Likes)

	for i := 0; i < 3; i++ {
		code, env := ts.call(http.MethodPost, "/response/"+resp.ID+"/like", vToken, nil)
		require.Equal(t, http.StatusOK, code)
		resp = decode[model.Response](t, env)
	}
	assert.Equal(t, 3, resp.Likes)

	code, env := ts.call(http.MethodGet, "/auth/me", uToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 30, decode[model.User](t, env).Reputation)
	assert.Equal(t, uID, decode[model.User](t, env).ID)

	code, env = ts.call(http.MethodGet, "/users/leaderboard", vToken, nil)
	require.Equal(t, http.StatusOK, code)
	board := decode[[]model.LeaderboardEntry](t, env)
	require.NotEmpty(t, board)
	assert.Equal(t, uID, board[0].UserID)
}

func TestOwnershipAndCascadeOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.admin()
	_, uToken := ts.register("ursula")
	_, vToken := ts.register("victor")

	_, env := ts.call(http.MethodPost, "/doubts", uToken, map[string]string{"title": "mine"})
	doubt := decode[model.Doubt](t, env)
	_, env = ts.call(http.MethodPost, "/response/"+doubt.ID, vToken, map[string]string{"content": "a"})
	resp := decode[model.Response](t, env)

	code, env := ts.call(http.MethodPatch, "/doubts/"+doubt.ID, vToken, map[string]string{"title": "stolen"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Not owner", env.Message)
	code, _ = ts.call(http.MethodDelete, "/doubts/"+doubt.ID, vToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = ts.call(http.MethodGet, "/admin/all-users", uToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	_, env = ts.call(http.MethodGet, "/notifications", uToken, nil)
	note := decode[[]model.Notification](t, env)[0]
	code, _ = ts.call(http.MethodPost, "/notifications/"+note.ID+"/read", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, env = ts.call(http.MethodPost, "/notifications/"+note.ID+"/read", uToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[model.Notification](t, env).Read)

	code, env = ts.call(http.MethodDelete, "/doubts/"+doubt.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Deleted", env.Message)

	code, _ = ts.call(http.MethodGet, "/doubts/"+doubt.ID, uToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, env = ts.call(http.MethodGet, "/response/"+doubt.ID+"/responses", uToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]model.Response](t, env))
	code, _ = ts.call(http.MethodPatch, "/response/"+resp.ID, vToken, map[string]string{"content": "x"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAuthErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.register("ursula")

	code, env := ts.call(http.MethodPost, "/auth/register", "", map[string]string{"username": "ursula", "email": "other@example.test", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "User already registered", env.Message)

	code, env = ts.call(http.MethodPost, "/auth/login", "", map[string]string{"email": "ursula@example.test", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid credentials", env.Message)

	code, _ = ts.call(http.MethodGet, "/doubts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = ts.call(http.MethodGet, "/doubts", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	uID, uToken := ts.register("gone")
	adminToken := ts.admin()
	code, _ = ts.call(http.MethodDelete, "/admin/users/"+uID, adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = ts.call(http.MethodGet, "/auth/me", uToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestEmailVerificationOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.register("ursula")
	ctx := context.Background()

	code, env := ts.call(http.MethodPost, "/auth/generate-token", "", map[string]string{"email": "ursula@example.test"})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "Verification email sent", env.Message)

	code, _ = ts.call(http.MethodPost, "/auth/generate-token", "", map[string]string{"email": "ursula@example.test"})
	assert.Equal(t, http.StatusTooManyRequests, code)

	job, err := ts.mail.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	idx := strings.Index(job.Body, "token=")
	require.Greater(t, idx, 0)
	token := strings.TrimSpace(strings.SplitN(job.Body[idx+len("token="):], "\r\n", 2)[0])

	code, env = ts.call(http.MethodGet, "/auth/verify-email?token="+token, "", nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = ts.call(http.MethodPost, "/auth/verified", "", map[string]string{"email": "ursula@example.test"})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[service.VerificationStatus](t, env).IsVerified)

	code, env = ts.call(http.MethodGet, "/auth/verify-email?token="+token, "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Verification link invalid or expired", env.Message)
}

func TestResourceListAcceptsRepeatedTags(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.admin()

	for _, r := range []map[string]any{
		{"title": "Knapsack", "url": "https://dsa.test/knapsack", "section": "dsa", "tags": []string{"dp"}},
		{"title": "BFS", "url": "https://dsa.test/bfs", "section": "dsa", "tags": []string{"graphs"}},
		{"title": "Paging", "url": "https://os.test/paging", "section": "os", "tags": []string{"memory"}},
	} {
		code, env := ts.call(http.MethodPost, "/resources", adminToken, r)
		require.Equal(t, http.StatusCreated, code, env.Message)
	}

	code, env := ts.call(http.MethodGet, "/resources?tags=dp&tags=graphs", "", nil)
	require.Equal(t, http.StatusOK, code)
	var titles []string
	for _, r := range decode[[]model.Resource](t, env) {
		titles = append(titles, r.Title)
	}
	assert.ElementsMatch(t, []string{"Knapsack", "BFS"}, titles)
}

func TestClickAlwaysSucceeds(t *testing.T) {
	ts := newTestServer(t)
	code, env := ts.call(http.MethodPost, "/resources/does-not-exist/click", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	code, env := ts.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = ts.call(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}
