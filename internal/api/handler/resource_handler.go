package handler

import (
	"net/http"
	"net/url"
	"strings"

	"peer_coach/internal/api/middleware"
	"peer_coach/internal/app/service"
	"peer_coach/internal/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ResourceHandler struct {
	resourceService *service.ResourceService
	logger          *zap.Logger
}

func NewResourceHandler(rs *service.ResourceService, logger *zap.Logger) *ResourceHandler {
	return &ResourceHandler{resourceService: rs, logger: logger}
}

func (h *ResourceHandler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Get("/", h.list)             // GET /resources?q=&section=&tags=a,b&company=
	r.Post("/{id}/click", h.click) // public telemetry

	r.Group(func(authed chi.Router) {
		authed.Use(authn)
		authed.Post("/", h.create)
		authed.Patch("/{id}", h.update)
		authed.Delete("/{id}", h.delete)
		authed.With(middleware.AdminOnly).Post("/{id}/approve", h.approve)
	})
}

func (h *ResourceHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.resourceService.List(r.Context(), service.ResourceQuery{
		Q:       q.Get("q"),
		Section: q.Get("section"),
		Tags:    queryTags(q),
		Company: q.Get("company"),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, list)
}

func (h *ResourceHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateResourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.resourceService.Create(r.Context(), user, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusCreated, res)
}

func (h *ResourceHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.UpdateResourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.resourceService.Update(r.Context(), user, chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, res)
}

func (h *ResourceHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.resourceService.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Deleted")
}

func (h *ResourceHandler) approve(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	res, err := h.resourceService.Approve(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, res)
}

func (h *ResourceHandler) click(w http.ResponseWriter, r *http.Request) {
	h.resourceService.Click(r.Context(), chi.URLParam(r, "id"))
	common.RespondWithJSON(w, http.StatusOK, common.Envelope{Success: true})
}

// queryTags merges repeated tags parameters, each of which may itself be a
// comma-separated list.
func queryTags(q url.Values) []string {
	var tags []string
	for _, raw := range q["tags"] {
		tags = append(tags, strings.Split(raw, ",")...)
	}
	return tags
}
