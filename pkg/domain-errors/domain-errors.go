// Package domainerrors carries transport-neutral failure codes from stores
// and services up to the HTTP layer, which maps each code to a status once.
package domainerrors

import (
	"errors"
	"maps"
)

type Code string

// Generic codes.
const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeRateLimited        Code = "rate_limited"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Tenancy and plan codes.
const (
	CodeTenantRequired      Code = "tenant_required"
	CodeTenantNotFound      Code = "tenant_not_found"
	CodeLicenseExpired      Code = "license_expired"
	CodeFeatureNotAvailable Code = "feature_not_available"
	CodePlanLimitReached    Code = "plan_limit_reached"
)

// Error is a coded failure. Fields maps JSON field paths to validation
// messages; Details holds machine-readable context such as current and max
// for a plan limit.
type Error struct {
	Code    Code
	Message string
	Err     error
	Fields  map[string]string
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap annotates err with msg. A domain error keeps its own code, fields and
// details; anything else takes code.
func Wrap(err error, code Code, msg string) error {
	out := &Error{Code: code, Message: msg, Err: err}
	var inner *Error
	if errors.As(err, &inner) {
		out.Code, out.Fields, out.Details = inner.Code, inner.Fields, inner.Details
	}
	return out
}

// Validation reports one message per offending field.
func Validation(msg string, fields map[string]string) error {
	return &Error{Code: CodeValidation, Message: msg, Fields: maps.Clone(fields)}
}

func WithDetails(code Code, msg string, details map[string]any) error {
	return &Error{Code: code, Message: msg, Details: maps.Clone(details)}
}

func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// CodeOf returns the outermost domain code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
