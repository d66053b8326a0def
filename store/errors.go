package store

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Tagged failures surfaced to the presentation layer. Handlers map these to
// HTTP statuses; anything else is treated as an internal storage failure.
var (
	// ErrNotFound covers both a genuinely absent document and an ownership
	// miss where existence is deliberately not disclosed.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is used where the operation chooses to reveal that the
	// document exists but the caller does not own it.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict signals a unique-constraint violation (slug, email).
	ErrConflict = errors.New("conflict")
)

// ValidationError rejects malformed input with field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// isDuplicateKey detects the mongo duplicate-key write error (code 11000)
// raised by the unique indexes on posts.slug and users.email.
func isDuplicateKey(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
