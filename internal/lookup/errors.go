package lookup

import (
	"errors"
	"fmt"
)

// ResolutionError reports a lookup that cannot be compiled.
//
// Resolution errors are usage errors: the lookup path or value is wrong for
// the schema. They are never transient, and the query under construction is
// discarded when one is returned.
type ResolutionError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the lookup key as given (order paths keep their sign).
	Path string

	// Token is the path token that failed, when one did.
	Token string

	// Entity names the entity the token was resolved against.
	Entity string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes resolution errors.
type ErrorCode string

const (
	// ErrCodeUnresolvable indicates a token names no field or relationship.
	ErrCodeUnresolvable ErrorCode = "UNRESOLVABLE_ATTRIBUTE"

	// ErrCodeAmbiguousTerminal indicates a path ends on a relationship
	// where a scalar field was required.
	ErrCodeAmbiguousTerminal ErrorCode = "AMBIGUOUS_TERMINAL"

	// ErrCodeUnknownOperator indicates a token after a scalar field is not
	// a registered operator suffix, or a token follows the operator.
	ErrCodeUnknownOperator ErrorCode = "UNKNOWN_OPERATOR"

	// ErrCodeInvalidValue indicates the value cannot serve the operator or
	// the field type.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"
)

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("%s: %s (path=%q", e.Code, e.Message, e.Path)
	if e.Entity != "" {
		msg += ", entity=" + e.Entity
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error { return e.Err }

// IsUnresolvable returns true if err is an unresolvable attribute error.
// Uses errors.As to handle wrapped errors.
func IsUnresolvable(err error) bool { return hasCode(err, ErrCodeUnresolvable) }

// IsAmbiguousTerminal returns true if err reports a path ending on a
// relationship.
func IsAmbiguousTerminal(err error) bool { return hasCode(err, ErrCodeAmbiguousTerminal) }

// IsUnknownOperator returns true if err reports an unknown operator suffix.
func IsUnknownOperator(err error) bool { return hasCode(err, ErrCodeUnknownOperator) }

// IsInvalidValue returns true if err reports a value the operator cannot use.
func IsInvalidValue(err error) bool { return hasCode(err, ErrCodeInvalidValue) }

func hasCode(err error, code ErrorCode) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func newUnresolvable(p Path, token, entity string) *ResolutionError {
	msg := fmt.Sprintf("%s has no field or relationship %q", entity, token)
	if p.Len() == 0 {
		msg = "empty lookup path"
	}
	return &ResolutionError{
		Code:    ErrCodeUnresolvable,
		Message: msg,
		Path:    p.String(),
		Token:   token,
		Entity:  entity,
	}
}

func newAmbiguousTerminal(p Path, rel, entity string, ordering bool) *ResolutionError {
	msg := fmt.Sprintf("path ends on relationship %s; a field is required", rel)
	if ordering {
		msg = fmt.Sprintf("tried to order by relationship %s, not a field", rel)
	}
	return &ResolutionError{
		Code:    ErrCodeAmbiguousTerminal,
		Message: msg,
		Path:    p.String(),
		Token:   rel,
		Entity:  entity,
	}
}

func newUnknownOperator(p Path, token, entity, message string) *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeUnknownOperator,
		Message: message,
		Path:    p.String(),
		Token:   token,
		Entity:  entity,
	}
}

func newInvalidValue(p Path, token, entity string, err error) *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("invalid value for %q", token),
		Path:    p.String(),
		Token:   token,
		Entity:  entity,
		Err:     err,
	}
}
