package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independently of how it is reported.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidAmount     Kind = "INVALID_AMOUNT"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindInvalidToken      Kind = "INVALID_TOKEN"
	KindPersistence       Kind = "PERSISTENCE_ERROR"
	KindRateLimited       Kind = "RATE_LIMITED"
	KindConflict          Kind = "CONFLICT"
)

// Result codes carried in the errorCode field of every response envelope.
const (
	CodeSuccess      = "00"
	CodeBadRequest   = "400"
	CodeUnauthorized = "401"
	CodeServerError  = "500"
)

// AppError is a structured error that maps to a response envelope.
type AppError struct {
	Kind       Kind   `json:"-"`
	Code       string `json:"errorCode"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s/%s] %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Kind, e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(kind Kind, code, message string, httpStatus int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, code, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Validation reports missing or malformed input.
func Validation(message string) *AppError {
	return New(KindValidation, CodeBadRequest, message, http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New(KindNotFound, CodeBadRequest, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidAmount() *AppError {
	return New(KindInvalidAmount, CodeBadRequest, "Amount must be greater than zero with at most two decimals", http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New(KindInsufficientFunds, CodeUnauthorized, "Insufficient balance in wallet", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New(KindInvalidToken, CodeUnauthorized, "Invalid or expired token", http.StatusUnauthorized)
}

func ErrUnauthorized(message string) *AppError {
	return New(KindInvalidToken, CodeUnauthorized, message, http.StatusUnauthorized)
}

func ErrRateLimitExceeded() *AppError {
	return New(KindRateLimited, CodeUnauthorized, "Too many attempts, try again later", http.StatusTooManyRequests)
}

// ErrIdempotencyConflict reports an Idempotency-Key reused for a different request.
func ErrIdempotencyConflict() *AppError {
	return New(KindConflict, CodeBadRequest, "Idempotency-Key already used for a different request", http.StatusConflict)
}

func ErrClientExists(err error) *AppError {
	return Wrap(KindPersistence, CodeServerError, "A client with this document and phone is already registered", http.StatusInternalServerError, err)
}

// Persistence wraps a store failure.
func Persistence(err error) *AppError {
	return Wrap(KindPersistence, CodeServerError, "Internal persistence error", http.StatusInternalServerError, err)
}

// InternalError wraps any unexpected failure as a persistence error.
func InternalError(err error) *AppError {
	return Wrap(KindPersistence, CodeServerError, "Internal server error", http.StatusInternalServerError, err)
}

// From returns err as an *AppError, treating anything unclassified as a
// persistence failure.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalError(err)
}

// KindOf returns the kind of err, or an empty Kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return From(err).Kind
}

// StatusForCode maps an envelope result code to an HTTP status.
func StatusForCode(code string) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
