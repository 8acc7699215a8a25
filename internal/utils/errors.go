package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Common application errors used across services.
var (
	ErrProductNotFound    = errors.New("Product not found")
	ErrVariantNotFound    = errors.New("Variant not found")
	ErrOrderNotFound      = errors.New("Order not found")
	ErrSuggestionNotFound = errors.New("Suggestion not found")
	ErrInvalidID          = errors.New("Invalid id")
	ErrAlreadyVoted       = errors.New("You have already voted on this suggestion")
	ErrDuplicateKey       = errors.New("duplicate key")
)

// Error codes carried in the response envelope.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUpstream     = "INTERNAL_ERROR"
	CodeVerification = "VERIFICATION_FAILED"
	CodeRateLimited  = "RATE_LIMITED"
)

// AppError is an error with a status and a client-safe message.
type AppError struct {
	Status  int
	Code    string
	Message string
	Err     error
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

// ValidationError rejects malformed input (400).
func ValidationError(format string, args ...any) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError wraps a not-found sentinel (404).
func NotFoundError(err error) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: CodeNotFound, Message: err.Error(), Err: err}
}

// ConflictError reports a uniqueness or state conflict (409).
func ConflictError(message string, err error) *AppError {
	return &AppError{Status: http.StatusConflict, Code: CodeConflict, Message: message, Err: err}
}

// UpstreamError hides a database or gateway failure behind a safe message (500).
func UpstreamError(message string, err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: CodeUpstream, Message: message, Err: err}
}

// DuplicateKeyError carries the name of the violated unique field.
type DuplicateKeyError struct {
	Key string
	Err error
}

func (e *DuplicateKeyError) Error() string {
	return "Duplicate key: " + e.Key
}

func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}
