package handler

import (
	"net/http"

	"peer_coach/internal/app/service"
	"peer_coach/internal/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ResponseHandler struct {
	responseService *service.ResponseService
	logger          *zap.Logger
}

func NewResponseHandler(rs *service.ResponseService, logger *zap.Logger) *ResponseHandler {
	return &ResponseHandler{responseService: rs, logger: logger}
}

// RegisterRoutes expects an authenticated router. The {id} segment names
// the doubt on create and list, and the response everywhere else.
func (h *ResponseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/user/{userId}", h.listByAuthor)
	r.Post("/{id}", h.create)
	r.Get("/{id}/responses", h.listByDoubt)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/like", h.like)
}

func (h *ResponseHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateResponseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.responseService.Create(r.Context(), user, chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusCreated, resp)
}

func (h *ResponseHandler) listByDoubt(w http.ResponseWriter, r *http.Request) {
	list, err := h.responseService.ListByDoubt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, list)
}

func (h *ResponseHandler) listByAuthor(w http.ResponseWriter, r *http.Request) {
	list, err := h.responseService.ListByAuthor(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, list)
}

func (h *ResponseHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.UpdateResponseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.responseService.Update(r.Context(), user, chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, resp)
}

func (h *ResponseHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.responseService.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Deleted")
}

func (h *ResponseHandler) like(w http.ResponseWriter, r *http.Request) {
	resp, err := h.responseService.Like(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, resp)
}
