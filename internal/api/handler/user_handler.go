package handler

import (
	"net/http"
	"strconv"

	"peer_coach/internal/app/service"
	"peer_coach/internal/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	leaderboardService *service.LeaderboardService
	logger             *zap.Logger
}

func NewUserHandler(ls *service.LeaderboardService, logger *zap.Logger) *UserHandler {
	return &UserHandler{leaderboardService: ls, logger: logger}
}

// RegisterRoutes expects an authenticated router.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/leaderboard", h.leaderboard) // GET /users/leaderboard?limit=20
}

func (h *UserHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	entries, err := h.leaderboardService.Top(r.Context(), limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, entries)
}
