package api

import (
	"net/http"
	"time"

	"peer_coach/internal/api/handler"
	"peer_coach/internal/api/middleware"
	"peer_coach/internal/app/service"
	"peer_coach/internal/common"
	"peer_coach/internal/common/security"
	"peer_coach/internal/domain/repository"
	"peer_coach/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer needs. It is assembled in main.
type Deps struct {
	Auth          *service.AuthService
	Verification  *service.VerificationService
	Doubts        *service.DoubtService
	Responses     *service.ResponseService
	Notifications *service.NotificationService
	Resources     *service.ResourceService
	Admin         *service.AdminService
	Leaderboard   *service.LeaderboardService

	Users       repository.UserRepository
	Tokens      *security.TokenManager
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	CORSOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Instrument(d.Metrics.HTTPRequests, d.Metrics.HTTPDuration))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Searches for a token in "Authorization: Bearer T" and stores the
	// verification result for middleware.Authenticator.
	r.Use(jwtauth.Verifier(d.Tokens.JWTAuth()))
	authn := middleware.Authenticator(d.Users, d.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithMessage(w, http.StatusOK, "OK")
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	authHandler := handler.NewAuthHandler(d.Auth, d.Verification, d.Logger)
	r.Route("/auth", func(ar chi.Router) {
		authHandler.RegisterRoutes(ar, authn)
	})

	resourceHandler := handler.NewResourceHandler(d.Resources, d.Logger)
	r.Route("/resources", func(rr chi.Router) {
		resourceHandler.RegisterRoutes(rr, authn)
	})

	r.Group(func(authed chi.Router) {
		authed.Use(authn)

		authed.Route("/doubts", handler.NewDoubtHandler(d.Doubts, d.Responses, d.Logger).RegisterRoutes)
		authed.Route("/response", handler.NewResponseHandler(d.Responses, d.Logger).RegisterRoutes)
		authed.Route("/notifications", handler.NewNotificationHandler(d.Notifications, d.Logger).RegisterRoutes)
		authed.Route("/users", handler.NewUserHandler(d.Leaderboard, d.Logger).RegisterRoutes)

		authed.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.AdminOnly)
			handler.NewAdminHandler(d.Admin, d.Resources, d.Logger).RegisterRoutes(admin)
		})
	})

	return r
}
