package handler

import (
	"encoding/json"
	"net/http"

	"peer_coach/internal/api/middleware"
	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// respondError writes err as an envelope. Internal errors are logged with
// their full chain and reach the client only as "Server error".
func respondError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := common.HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	common.RespondWithError(w, status, common.PublicMessage(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthorized.Error())
		return nil, false
	}
	return user, true
}
