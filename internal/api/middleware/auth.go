package middleware

import (
	"context"
	"net/http"

	"peer_coach/internal/common"
	"peer_coach/internal/common/security"
	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

type contextKey string

const UserCtxKey contextKey = "user"

// Authenticator resolves the bearer token verified by jwtauth.Verifier to
// a stored user. A missing or invalid token, or a token whose user no
// longer exists, ends the request with 401.
func Authenticator(users repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthorized.Error())
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthorized.Error())
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				if !common.IsKind(err, common.KindNotFound) {
					logger.Error("failed to resolve token user", zap.String("user_id", userID), zap.Error(err))
					common.RespondWithError(w, http.StatusInternalServerError, common.ErrInternalServer.Error())
					return
				}
				common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthorized.Error())
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through only when the resolved user holds one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthorized.Error())
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			common.RespondWithError(w, http.StatusForbidden, "Forbidden")
		})
	}
}

func AdminOnly(next http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)(next)
}

// UserFromContext returns the user stored by Authenticator.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok && user != nil
}
