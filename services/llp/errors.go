package llp

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-range input. It is always
// detected before any mutation takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErr(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func notFoundErr(entity string, id fmt.Stringer) error {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// DomainError reports an operation that would violate a lifecycle invariant,
// such as retiring a part twice or resolving an unacknowledged alert.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string { return e.Reason }

func domainErr(format string, args ...any) error {
	return &DomainError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// IsDomain reports whether err is a DomainError.
func IsDomain(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
