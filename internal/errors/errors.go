package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/sirupsen/logrus"
)

const (
	msgDuplicate     = "This record already exists"
	msgInvalidData   = "Invalid data provided"
	msgNotAuthorized = "You do not have permission to perform this action"
	msgNetwork       = "Network error. Please try again."
	msgFallback      = "An unexpected error occurred. Please try again."
)

const (
	pgCodeUniqueViolation  = "23505"
	pgCodeInvalidSyntax    = "22P02"
	pgCodePermissionDenied = "42501"
)

// ValidationError is malformed user input, rejected before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// StoreError is a failed remote store operation carrying its cause
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed - %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func NewStoreError(op string, cause error) *StoreError {
	return &StoreError{Op: op, Cause: cause}
}

// AuthError is a sign-in rejected by the identity service
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s - %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

func NewAuthError(msg string, cause error) *AuthError {
	return &AuthError{Message: msg, Cause: cause}
}

// RateLimitError is a tripped login throttle, reported with the concrete reset time
type RateLimitError struct {
	Identifier string
	ResetAt    time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many attempts for %s, try again after %s", e.Identifier, e.ResetAt.Format(time.RFC3339))
}

func NewRateLimitError(id string, resetAt time.Time) *RateLimitError {
	return &RateLimitError{Identifier: id, ResetAt: resetAt}
}

// UploadError is a document upload rejected locally or failed in transit
type UploadError struct {
	Message string
	Cause   error
}

func (e *UploadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s - %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *UploadError) Unwrap() error {
	return e.Cause
}

func NewUploadError(msg string, cause error) *UploadError {
	return &UploadError{Message: msg, Cause: cause}
}

// Sanitize translates err to a fixed user-facing message. Technical detail
// is logged and never returned to the caller.
func Sanitize(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}

	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return fmt.Sprintf("Too many attempts. Try again after %s.", rlErr.ResetAt.Format("15:04"))
	}

	var upErr *UploadError
	if errors.As(err, &upErr) {
		return upErr.Message
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeUniqueViolation:
			return msgDuplicate
		case pgCodeInvalidSyntax:
			return msgInvalidData
		case pgCodePermissionDenied:
			return msgNotAuthorized
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		logrus.WithError(err).Error("network failure")
		return msgNetwork
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate key value"):
		return msgDuplicate
	case strings.Contains(msg, "invalid input syntax"):
		return msgInvalidData
	case strings.Contains(msg, "permission denied"):
		return msgNotAuthorized
	case strings.Contains(msg, "network"):
		return msgNetwork
	}

	logrus.WithError(err).Error("unhandled error")
	return msgFallback
}

// LogSecurityEvent records a security-relevant event with structured detail
func LogSecurityEvent(event string, fields logrus.Fields) {
	logrus.WithFields(fields).Warnf("[SECURITY] %s", event)
}
