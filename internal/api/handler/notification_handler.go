package handler

import (
	"net/http"

	"peer_coach/internal/app/service"
	"peer_coach/internal/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

func NewNotificationHandler(ns *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: ns, logger: logger}
}

// RegisterRoutes expects an authenticated router.
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/{id}/read", h.markRead)
	r.Delete("/{id}", h.delete)
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, err := h.notificationService.List(r.Context(), user)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, list)
}

func (h *NotificationHandler) markRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := h.notificationService.MarkRead(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, n)
}

func (h *NotificationHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.notificationService.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Deleted")
}
