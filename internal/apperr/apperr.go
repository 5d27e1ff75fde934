package apperr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code surfaced to API clients.
type Code string

const (
	CodeValidation       Code = "VALIDATION_FAILED"
	CodeUnavailable      Code = "TRANSCRIPT_UNAVAILABLE"
	CodeExtraction       Code = "EXTRACTION_FAILED"
	CodeInsufficientPlan Code = "AUTH_INSUFFICIENT_PLAN"
	CodeRender           Code = "RENDER_FAILED"
	CodeSummary          Code = "SUMMARY_FAILED"
	CodeNotFound         Code = "RESOURCE_NOT_FOUND"
	CodeRateLimit        Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal         Code = "INTERNAL_ERROR"
)

// Error is a classified, user-safe error. Message and Details are safe to
// show to callers; the cause is only for logs.
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the underlying error, if any.
func (e *Error) Cause() error {
	return e.cause
}

// UpgradeRequired reports whether the request could succeed on a higher plan.
func (e *Error) UpgradeRequired() bool {
	return e.Code == CodeInsufficientPlan
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Validation(message string) *Error {
	return New(CodeValidation, message)
}

func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

func Extraction(message string, cause error) *Error {
	return New(CodeExtraction, message).WithCause(cause)
}

func InsufficientPlan(feature string) *Error {
	return New(CodeInsufficientPlan, fmt.Sprintf("%s requires a PRO subscription", feature)).
		WithDetail("upgrade_required", true)
}

func Render(format string, cause error) *Error {
	return New(CodeRender, fmt.Sprintf("Failed to render %s output", format)).WithCause(cause)
}

func Summary(cause error) *Error {
	return New(CodeSummary, "Failed to generate AI summary").WithCause(cause)
}

func NotFound(resource string) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Internal(cause error) *Error {
	return New(CodeInternal, "An unexpected error occurred").WithCause(cause)
}

// As returns the *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns err's code, or CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}
