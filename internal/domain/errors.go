package domain

import "errors"

// Domain errors
var (
	ErrNoteNotFound      = errors.New("note not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidColor      = errors.New("invalid highlight color")
	ErrInvalidPosition   = errors.New("invalid position")
	ErrInvalidTransition = errors.New("invalid sync state transition")
	ErrAnnotationUnknown = errors.New("annotation not found in session")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
