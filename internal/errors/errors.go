package errors

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrAuthorization    = errors.New("no current user")
	ErrTransientStorage = errors.New("storage unavailable")
)

// kindError carries a caller-facing message while matching its kind via errors.Is.
type kindError struct {
	kind  error
	msg   string
	cause error
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.cause }

// Validation reports missing or malformed input.
func Validation(msg string) error {
	return &kindError{kind: ErrValidation, msg: msg}
}

// NotFound reports a missing user, profile or record.
func NotFound(resource string) error {
	return &kindError{kind: ErrNotFound, msg: resource + " not found"}
}

// Unauthorized reports an action attempted without a current user.
func Unauthorized(msg string) error {
	return &kindError{kind: ErrAuthorization, msg: msg}
}

// Storage wraps a repository failure. gorm.ErrRecordNotFound becomes ErrNotFound,
// everything else is treated as transient and left to the caller to retry.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &kindError{kind: ErrNotFound, msg: op, cause: err}
	}
	return &kindError{kind: ErrTransientStorage, msg: op, cause: err}
}

// Is is errors.Is, re-exported so callers importing this package as svcErr need one import.
func Is(err, target error) bool { return errors.Is(err, target) }
