package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestSpecificErrorsMatchOnlyThemselves(t *testing.T) {
	titleRequired := NewError(KindValidation, "Title required")
	missingFields := NewError(KindValidation, "Missing fields")
	noSuchUser := NewError(KindNotFound, "No such user")

	wrapped := fmt.Errorf("failed to create: %w", titleRequired)
	assert.ErrorIs(t, wrapped, titleRequired)
	assert.NotErrorIs(t, wrapped, missingFields)
	assert.NotErrorIs(t, missingFields, titleRequired)

	// A generic class sentinel never stands in for a specific error.
	assert.NotErrorIs(t, ErrNotFound, noSuchUser)
	assert.NotErrorIs(t, ErrBadRequest, titleRequired)
}

func TestClassSentinelsMatchByKind(t *testing.T) {
	noSuchUser := NewError(KindNotFound, "No such user")

	assert.ErrorIs(t, noSuchUser, ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("lookup: %w", noSuchUser), ErrNotFound)
	assert.NotErrorIs(t, noSuchUser, ErrForbidden)
	assert.NotErrorIs(t, ErrForbidden, ErrUnauthorized)
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(fmt.Errorf("x: %w", NewError(KindConflict, "dup")), KindConflict))
	assert.True(t, IsKind(&pgconn.PgError{Code: "23505"}, KindConflict))
	assert.False(t, IsKind(NewError(KindValidation, "bad"), KindNotFound))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestHTTPStatusAndPublicMessage(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{NewError(KindValidation, "Title required"), http.StatusBadRequest, "Title required"},
		{NewError(KindConflict, "URL already exists"), http.StatusBadRequest, "URL already exists"},
		{ErrUnauthorized, http.StatusUnauthorized, "Unauthenticated"},
		{NewError(KindForbidden, "Not owner"), http.StatusForbidden, "Not owner"},
		{fmt.Errorf("load: %w", ErrNotFound), http.StatusNotFound, "Not found"},
		{NewError(KindRateLimited, "wait"), http.StatusTooManyRequests, "wait"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "Server error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatusFromError(tt.err), tt.err.Error())
		assert.Equal(t, tt.message, PublicMessage(tt.err), tt.err.Error())
	}
}
