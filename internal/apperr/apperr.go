// Package apperr defines the domain error taxonomy shared by every service.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInfrastructure Kind = iota
	KindValidation
	KindReference
	KindNotFound
	KindConflict
	KindAuthorization
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindReference:
		return "reference"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	}
	return "infrastructure"
}

// Error is a classified domain failure. Field names the offending payload
// field for validation and reference errors.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil && e.Kind == KindInfrastructure {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(field, msg string) error {
	return &Error{Kind: KindValidation, Field: field, Msg: msg}
}

func Reference(field, msg string) error {
	return &Error{Kind: KindReference, Field: field, Msg: msg}
}

func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Msg: what + " not found"}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindAuthorization, Msg: msg}
}

func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Msg: msg}
}

// Infra wraps a store or transport failure. Wrapping an already classified
// error keeps its original kind.
func Infra(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInfrastructure, Msg: op, Err: err}
}

// KindOf classifies err; unclassified errors count as infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}

// FieldOf returns the payload field attached to err, if any.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }

func IsReference(err error) bool { return err != nil && KindOf(err) == KindReference }

func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

func IsConflict(err error) bool { return err != nil && KindOf(err) == KindConflict }

func IsForbidden(err error) bool { return err != nil && KindOf(err) == KindAuthorization }

func IsInfra(err error) bool { return err != nil && KindOf(err) == KindInfrastructure }

// Validationf is Validation with formatting.
func Validationf(field, format string, args ...any) error {
	return Validation(field, fmt.Sprintf(format, args...))
}
