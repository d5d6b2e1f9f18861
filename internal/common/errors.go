package common

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden access")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource conflict") // e.g., team already submitted
	ErrInternalServer = errors.New("internal server error")
	ErrValidation     = errors.New("validation failed")

	ErrAccountLocked        = errors.New("account locked")
	ErrDeadlinePassed       = errors.New("submission deadline passed")
	ErrSelectionLocked      = errors.New("problem selection locked")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrSubmissionInProgress = errors.New("submission in progress")
)

// UserError carries the title and message shown to the user for a failed
// action. Kind is one of the sentinels above and drives the HTTP status.
type UserError struct {
	Kind    error
	Title   string
	Message string
}

func (e *UserError) Error() string {
	return e.Title + ": " + e.Message
}

func (e *UserError) Unwrap() error {
	return e.Kind
}

func NewUserError(kind error, title, message string) *UserError {
	return &UserError{Kind: kind, Title: title, Message: message}
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, ErrInternalServer):
		return http.StatusInternalServerError
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrDeadlinePassed):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict), errors.Is(err, ErrSelectionLocked), errors.Is(err, ErrSubmissionInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrAccountLocked):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	}

	if IsUniqueViolation(err) {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
