// Package apperror defines the error kinds surfaced by services and how they
// map onto HTTP responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"copycorner/internal/model"
)

type Kind string

const (
	KindNotFound           Kind = "NotFound"
	KindDuplicateKey       Kind = "DuplicateKey"
	KindDependencyConflict Kind = "DependencyConflict"
	KindParentArchived     Kind = "ParentArchived"
	KindInvalidState       Kind = "InvalidState"
	KindValidation         Kind = "ValidationError"
	KindUnauthorized       Kind = "Unauthorized"
	KindForbidden          Kind = "Forbidden"
	KindUnexpected         Kind = "Unexpected"
)

// MaxSample bounds the number of blocking records carried by a DependencyConflict.
const MaxSample = 5

// Error is a classified service error.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, apperror.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrDuplicateKey       = &Error{Kind: KindDuplicateKey}
	ErrDependencyConflict = &Error{Kind: KindDependencyConflict}
	ErrParentArchived     = &Error{Kind: KindParentArchived}
	ErrInvalidState       = &Error{Kind: KindInvalidState}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
)

// ConflictDetails is the payload of a DependencyConflict.
type ConflictDetails struct {
	Count      int64                `json:"count"`
	Dependents []model.DependentRef `json:"dependents"`
}

func NotFound(kind model.EntityKind) *Error {
	return &Error{Kind: KindNotFound, Message: capitalize(kind.Label()) + " not found"}
}

func Duplicate(kind model.EntityKind, field, value string) *Error {
	return &Error{
		Kind:    KindDuplicateKey,
		Message: fmt.Sprintf("An active %s with %s %q already exists", kind.Label(), field, value),
	}
}

// DependencyConflict reports that op on the named entity is blocked by count
// live dependents. sample is truncated to MaxSample entries.
func DependencyConflict(kind model.EntityKind, name, op string, count int64, sample []model.DependentRef) *Error {
	if len(sample) > MaxSample {
		sample = sample[:MaxSample]
	}
	if sample == nil {
		sample = []model.DependentRef{}
	}
	noun := "dependent record(s)"
	hint := "reassign or archive them first"
	if len(sample) > 0 && sameKind(sample) {
		noun = fmt.Sprintf("active %s(s)", sample[0].Kind.Label())
		hint = fmt.Sprintf("please reassign or archive these %ss first", sample[0].Kind.Label())
	}
	return &Error{
		Kind:    KindDependencyConflict,
		Message: fmt.Sprintf("Cannot %s %s %q. %d %s still reference it, %s.", op, kind.Label(), name, count, noun, hint),
		Details: ConflictDetails{Count: count, Dependents: sample},
	}
}

func ParentArchived(kind model.EntityKind, parent model.EntityKind, parentName string) *Error {
	return &Error{
		Kind: KindParentArchived,
		Message: fmt.Sprintf("Cannot restore %s: its %s %q is archived. Restore the %s first.",
			kind.Label(), parent.Label(), parentName, parent.Label()),
		Details: map[string]interface{}{"parent_kind": parent, "parent_name": parentName},
	}
}

// ArchivedReference rejects pointing a record at an archived one.
func ArchivedReference(kind model.EntityKind, name string) *Error {
	return &Error{
		Kind:    KindParentArchived,
		Message: fmt.Sprintf("%s %q is archived and cannot be referenced", capitalize(kind.Label()), name),
		Details: map[string]interface{}{"parent_kind": kind, "parent_name": name},
	}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Wrap classifies an unexpected failure, keeping the cause for logs.
func Wrap(err error, msg string) *Error {
	return &Error{Kind: KindUnexpected, Message: msg, Err: err}
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus returns the response status for an error kind.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateKey, KindDependencyConflict, KindParentArchived, KindInvalidState:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func sameKind(refs []model.DependentRef) bool {
	for _, r := range refs[1:] {
		if r.Kind != refs[0].Kind {
			return false
		}
	}
	return true
}
