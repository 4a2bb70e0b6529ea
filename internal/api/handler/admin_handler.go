package handler

import (
	"net/http"

	"peer_coach/internal/app/service"
	"peer_coach/internal/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminService    *service.AdminService
	resourceService *service.ResourceService
	logger          *zap.Logger
}

func NewAdminHandler(as *service.AdminService, rs *service.ResourceService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: as, resourceService: rs, logger: logger}
}

// RegisterRoutes expects a router already restricted to admins.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/all-users", h.listUsers)
	r.Put("/add-mentor/{id}", h.addMentor)
	r.Put("/users/{id}/placed", h.setPlaced)
	r.Delete("/users/{id}", h.deleteUser)
	r.Get("/doubts", h.listDoubts)
	r.Post("/responses/{id}/flag", h.flagResponse)
	r.Get("/resources/pending", h.pendingResources)
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, users)
}

func (h *AdminHandler) addMentor(w http.ResponseWriter, r *http.Request) {
	user, err := h.adminService.PromoteToMentor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.Envelope{Success: true, Data: user, Message: "User promoted to mentor"})
}

func (h *AdminHandler) setPlaced(w http.ResponseWriter, r *http.Request) {
	var req service.SetPlacedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.adminService.SetPlaced(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, user)
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "User deleted")
}

func (h *AdminHandler) listDoubts(w http.ResponseWriter, r *http.Request) {
	doubts, err := h.adminService.ListDoubts(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, doubts)
}

func (h *AdminHandler) flagResponse(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.FlagResponse(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Response removed")
}

func (h *AdminHandler) pendingResources(w http.ResponseWriter, r *http.Request) {
	list, err := h.resourceService.ListPending(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, list)
}
