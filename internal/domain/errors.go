package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an Error for the transport boundary.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindBusinessRule Kind = "BUSINESS_RULE_VIOLATION"
	KindInternal     Kind = "INTERNAL_SERVER_ERROR"
)

// Business rule codes. They match the violation names reported by the policy engine.
const (
	RuleSessionNotActive  = "session_not_active"
	RuleStoryNotInSession = "story_not_in_session"
	RuleNoCurrentStory    = "no_current_story"
)

// Error is the typed failure returned by the session engine.
type Error struct {
	Kind    Kind                // Classification used for the response status
	Code    string              // Machine-readable reason, e.g. a business rule name
	Message string              // Human readable message
	Fields  map[string][]string // Per-field messages for validation failures
	Cause   error               // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind. A target carrying a
// code must match it too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrBusinessRule = &Error{Kind: KindBusinessRule}
)

// NewValidationError builds a validation failure from collected field messages.
func NewValidationError(fields map[string][]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    string(KindValidation),
		Message: "One or more validation errors occurred",
		Fields:  fields,
	}
}

// NewNotFoundError reports that the named entity could not be resolved.
func NewNotFoundError(entity string, key any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    string(KindNotFound),
		Message: fmt.Sprintf("%s with identifier '%v' was not found", entity, key),
	}
}

// NewConflictError reports a uniqueness violation.
func NewConflictError(message string, cause error) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    string(KindConflict),
		Message: message,
		Cause:   cause,
	}
}

// NewBusinessRuleError reports an operation that is invalid in the current state.
func NewBusinessRuleError(rule, message string) *Error {
	return &Error{
		Kind:    KindBusinessRule,
		Code:    rule,
		Message: message,
	}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// FieldErrors collects per-field validation messages.
type FieldErrors map[string][]string

// Add records msg against field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Err returns a validation error when any field failed, nil otherwise.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return NewValidationError(f)
}
