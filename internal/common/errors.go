package common

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies every error the API can surface.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Error is a domain error whose Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string

	// class marks the generic per-kind sentinels below.
	class bool
}

func (e *Error) Error() string { return e.Message }

// Is matches the same sentinel, or a generic class sentinel of the same
// kind: errors.Is(ErrDoubtNotFound, ErrNotFound) holds but two distinct
// validation errors never match each other.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t == e || (t.class && t.Kind == e.Kind)
}

// NewError creates a client-visible error of the given kind.
func NewError(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func newClass(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message, class: true}
}

var (
	ErrNotFound        = newClass(KindNotFound, "Not found")
	ErrUnauthorized    = newClass(KindUnauthenticated, "Unauthenticated")
	ErrForbidden       = newClass(KindForbidden, "Forbidden")
	ErrBadRequest      = newClass(KindValidation, "Bad request")
	ErrConflict        = newClass(KindConflict, "Resource conflict")
	ErrTooManyRequests = newClass(KindRateLimited, "Too many requests")
	ErrInternalServer  = newClass(KindInternal, "Server error")
)

// IsKind reports whether err carries a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsUniqueViolation reports whether err carries a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if IsUniqueViolation(err) {
		return KindConflict
	}
	return KindInternal
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindValidation, KindConflict:
		// Conflicts keep the 400 contract clients already parse.
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text a client may see for err. Internal
// errors never leak their chain.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	if IsUniqueViolation(err) {
		return ErrConflict.Error()
	}
	return ErrInternalServer.Error()
}
