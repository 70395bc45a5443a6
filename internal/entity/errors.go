package entity

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors of the export pipeline. The typed errors below unwrap to
// them so callers can match with errors.Is.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidISBN         = errors.New("invalid ISBN")
	ErrUnsupportedTrimSize = errors.New("unsupported trim size")
	ErrEmptyBook           = errors.New("book has no chapters")
	ErrImageLoad           = errors.New("image could not be loaded")
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
)

// InvalidInputError rejects a bad page count, trim size or layout before any
// work begins.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

type InvalidISBNError struct {
	Value  string
	Reason string
}

func (e *InvalidISBNError) Error() string {
	return fmt.Sprintf("invalid ISBN %q: %s", e.Value, e.Reason)
}

func (e *InvalidISBNError) Unwrap() error { return ErrInvalidISBN }

type UnsupportedTrimSizeError struct {
	Vendor   string
	TrimSize string
}

func (e *UnsupportedTrimSizeError) Error() string {
	return fmt.Sprintf("%s does not support trim size %q", e.Vendor, e.TrimSize)
}

func (e *UnsupportedTrimSizeError) Unwrap() error { return ErrUnsupportedTrimSize }

// ImageLoadError reports an unreachable or undecodable illustration.
type ImageLoadError struct {
	Ref string
	Err error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("load image %q: %v", e.Ref, e.Err)
}

func (e *ImageLoadError) Unwrap() []error { return []error{ErrImageLoad, e.Err} }

// ErrorCode maps an error onto the stable code used in export reports and
// JSON responses.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELLED"
	case errors.Is(err, ErrInvalidISBN):
		return "INVALID_ISBN"
	case errors.Is(err, ErrUnsupportedTrimSize):
		return "UNSUPPORTED_TRIM_SIZE"
	case errors.Is(err, ErrEmptyBook):
		return "EMPTY_BOOK"
	case errors.Is(err, ErrImageLoad):
		return "IMAGE_LOAD"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	default:
		return "INTERNAL_ERROR"
	}
}
