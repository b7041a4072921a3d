package core

import (
	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// RequireFields returns a ValidationError listing the empty values of `fields` ({name: value}).
func RequireFields(fields map[string]string) error {
	var flds []FieldError
	for name, val := range fields {
		if CleanString(val) == "" {
			flds = append(flds, FieldError{Field: name, Error: "this field is required"})
		}
	}
	if len(flds) == 0 {
		return nil
	}
	return NewValidationError(nil, flds...)
}

// NotFoundError is the type of every domain "not found" sentinel (user.ErrNotFound, course.ErrNotFound...).
type NotFoundError struct {
	Err error
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{Err: errors.New(msg)}
}

func (err NotFoundError) Error() string { return err.Err.Error() }

// IsNotFound reports whether any error in err's chain is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// UpstreamError is returned when a third-party service (payment processor, media storage) fails.
type UpstreamError struct {
	Service string
	Err     error
}

func NewUpstreamError(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}

func (err UpstreamError) Error() string {
	return err.Service + ": " + err.Err.Error()
}

func (err UpstreamError) Unwrap() error { return err.Err }

// IsUpstream reports whether any error in err's chain is an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
