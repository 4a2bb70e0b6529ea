package handler

import (
	"net/http"

	"peer_coach/internal/app/service"
	"peer_coach/internal/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService         *service.AuthService
	verificationService *service.VerificationService
	logger              *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, verificationService *service.VerificationService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, verificationService: verificationService, logger: logger}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/generate-token", h.generateToken)
	r.Get("/verify-email", h.verifyEmail)
	r.Post("/verified", h.verified)

	r.With(authn).Get("/me", h.me)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, resp)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	me, err := h.authService.Me(r.Context(), user)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, me)
}

func (h *AuthHandler) generateToken(w http.ResponseWriter, r *http.Request) {
	var req service.EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sent, err := h.verificationService.SendVerification(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if !sent {
		common.RespondWithMessage(w, http.StatusOK, "Email already verified")
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Verification email sent")
}

func (h *AuthHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.verificationService.Verify(r.Context(), r.URL.Query().Get("token")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Email verified")
}

func (h *AuthHandler) verified(w http.ResponseWriter, r *http.Request) {
	var req service.EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := h.verificationService.Status(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, status)
}
