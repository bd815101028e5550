// Package services provides standardized error types for editor operations.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/flowedit/pkg/compiler"
	"github.com/dukex/flowedit/pkg/registry"
	"github.com/dukex/flowedit/pkg/simulator"
	"github.com/dukex/flowedit/pkg/store"
	"github.com/dukex/flowedit/pkg/validation"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrIntentRequired = errors.New("intent cannot be nil")

	// Not Found Errors (404 Not Found).
	ErrCardNotFound = errors.New("confirmation card not found")

	// Business Logic Conflicts (409 Conflict).
	ErrCardResolved = errors.New("confirmation card already resolved")
	ErrStreaming    = errors.New("a workflow is being revealed")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrIntentRequired) ||
		errors.Is(err, validation.ErrInvalid) ||
		errors.Is(err, registry.ErrUnknownNodeType) ||
		compiler.IsCompileError(err)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrCardNotFound) || store.IsNotFound(err)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrCardResolved) ||
		errors.Is(err, ErrStreaming) ||
		errors.Is(err, simulator.ErrAlreadyRunning) ||
		store.IsDuplicateEdge(err)
}

// IsIntegrityError checks if an error is a rejected graph that should return HTTP 422.
func IsIntegrityError(err error) bool {
	return store.IsIntegrityError(err)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	if err == nil {
		err = ErrInvalidRequest
	}

	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes reported in ServiceError.Code.
const (
	CodeInvalidConfig  = "invalid_config"
	CodeInvalidHandle  = "invalid_handle"
	CodeInvalidIntent  = "invalid_intent"
	CodeInvalidMeta    = "invalid_meta"
	CodeInvalidPayload = "invalid_payload"
	CodeCardResolved   = "card_resolved"
)
