package handler

import (
	"net/http"

	"peer_coach/internal/app/service"
	"peer_coach/internal/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type DoubtHandler struct {
	doubtService    *service.DoubtService
	responseService *service.ResponseService
	logger          *zap.Logger
}

func NewDoubtHandler(ds *service.DoubtService, rs *service.ResponseService, logger *zap.Logger) *DoubtHandler {
	return &DoubtHandler{doubtService: ds, responseService: rs, logger: logger}
}

// RegisterRoutes expects an authenticated router.
func (h *DoubtHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/responses", h.listResponses)
}

func (h *DoubtHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateDoubtRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doubt, err := h.doubtService.Create(r.Context(), user, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusCreated, doubt)
}

func (h *DoubtHandler) list(w http.ResponseWriter, r *http.Request) {
	doubts, err := h.doubtService.List(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, doubts)
}

func (h *DoubtHandler) get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.doubtService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, detail)
}

func (h *DoubtHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.UpdateDoubtRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doubt, err := h.doubtService.Update(r.Context(), user, chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, doubt)
}

func (h *DoubtHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.doubtService.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Deleted")
}

func (h *DoubtHandler) listResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := h.responseService.ListByDoubt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, responses)
}
