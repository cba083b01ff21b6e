// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrConflict     = errors.New("concurrent modification")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
)

// Identity and tenant lifecycle failures. Handlers translate these into the
// response envelope through ToAppError.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidFederatedToken = errors.New("invalid federated token")
	ErrConflictingAccount    = errors.New("conflicting account")
	ErrTenantInactive        = errors.New("tenant inactive")
	ErrInvalidTenantState    = errors.New("invalid tenant state")
	ErrValidationFailed      = errors.New("validation failed")
)

type ValidationError struct {
	Errors []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func (e *ValidationError) Add(message string) {
	e.Errors = append(e.Errors, message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// OrNil returns nil when no messages were collected so callers can
// accumulate field errors and return the result directly.
func (e *ValidationError) OrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return e
}

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
	Errors     []string
}

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "insufficient permissions"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		fmt.Sprintf("%s already exists", field),
		http.StatusConflict,
		"DUPLICATE",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, "token has expired", http.StatusUnauthorized, "TOKEN_EXPIRED")
}

func TokenInvalidError() *AppError {
	return NewAppError(ErrTokenInvalid, "token is invalid", http.StatusUnauthorized, "TOKEN_INVALID")
}

func TokenRevokedError() *AppError {
	return NewAppError(ErrTokenRevoked, "token has been revoked", http.StatusUnauthorized, "TOKEN_REVOKED")
}

func TenantInactiveError() *AppError {
	return NewAppError(
		ErrTenantInactive,
		"tenant is not active",
		http.StatusForbidden,
		"TENANT_INACTIVE",
	)
}

// ToAppError maps any error produced below the HTTP layer to its envelope
// representation. Unknown errors become a generic 500.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		out := NewAppError(err, "validation failed", http.StatusBadRequest, "VALIDATION_FAILED")
		out.Errors = validationErr.Errors
		return out
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewAppError(err, "invalid email or password", http.StatusUnauthorized, "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInvalidFederatedToken):
		return NewAppError(err, "invalid federated identity token", http.StatusUnauthorized, "INVALID_FEDERATED_TOKEN")
	case errors.Is(err, ErrConflictingAccount):
		return NewAppError(
			err,
			"an account with this email already exists with a different sign-in method",
			http.StatusConflict,
			"CONFLICTING_ACCOUNT",
		)
	case errors.Is(err, ErrTenantInactive):
		return NewAppError(err, "tenant is not active", http.StatusForbidden, "TENANT_INACTIVE")
	case errors.Is(err, ErrInvalidTenantState):
		return NewAppError(err, "operation not allowed in the current tenant state", http.StatusConflict, "INVALID_TENANT_STATE")
	case errors.Is(err, ErrValidationFailed), errors.Is(err, ErrInvalidInput):
		return NewAppError(err, "validation failed", http.StatusBadRequest, "VALIDATION_FAILED")
	case errors.Is(err, ErrNotFound):
		return NewAppError(err, "resource not found", http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, ErrDuplicateKey):
		return NewAppError(err, "resource already exists", http.StatusConflict, "DUPLICATE")
	case errors.Is(err, ErrConflict):
		return NewAppError(err, "resource was modified concurrently", http.StatusConflict, "CONFLICT")
	case errors.Is(err, ErrForbidden):
		return NewAppError(err, "insufficient permissions", http.StatusForbidden, "FORBIDDEN")
	case errors.Is(err, ErrUnauthorized):
		return NewAppError(err, "authentication required", http.StatusUnauthorized, "UNAUTHORIZED")
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError()
	case errors.Is(err, ErrTokenRevoked):
		return TokenRevokedError()
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError()
	}

	return NewAppError(err, "internal server error", http.StatusInternalServerError, "INTERNAL_ERROR")
}
