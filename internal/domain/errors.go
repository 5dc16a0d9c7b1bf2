package domain

import (
	"errors"
	"strings"
)

var (
	ErrProfileNotFound        = errors.New("profile not found")
	ErrConversationNotFound   = errors.New("conversation not found")
	ErrLocationNotFound       = errors.New("location not found")
	ErrSessionNotFound        = errors.New("session not found")
	ErrSessionExpired         = errors.New("session expired")
	ErrInvalidToken           = errors.New("invalid token")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrEmailNotAllowed        = errors.New("email is not allowed to sign in")
	ErrUnknownDestinationType = errors.New("unknown destination type")
	ErrCannotMessageSelf      = errors.New("cannot start a conversation with yourself")
	ErrNotParticipant         = errors.New("user is not a participant of this conversation")
	ErrDraftIncomplete        = errors.New("onboarding draft is incomplete")
	ErrOnboardingComplete     = errors.New("onboarding is already complete")
)

// FieldError points at a single offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned before any persistence attempt when input is
// missing or malformed.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasField reports whether field has at least one error.
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no field errors were collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
