package analytics

import (
	"context"
	"errors"
	"fmt"
)

// Error codes surfaced to callers. Every failure leaving this
// package carries exactly one of these.
const (
	CodeInvalidParameter   = "InvalidParameter"
	CodeInvalidDateRange   = "InvalidDateRange"
	CodeEmptyDataset       = "EmptyDataset"
	CodeStorageUnavailable = "StorageUnavailable"
	CodeTimeout            = "Timeout"
)

// Error is a classified analytics failure. Field names the
// offending parameter for InvalidParameter errors.
type Error struct {
	Code    string
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// CodeOf extracts the error code, or "" for unclassified errors.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// InvalidParam builds an InvalidParameter error naming the field.
func InvalidParam(field, msg string) *Error {
	return &Error{Code: CodeInvalidParameter, Field: field, Message: msg}
}

// InvalidRange builds an InvalidDateRange error.
func InvalidRange(msg string) *Error {
	return &Error{Code: CodeInvalidDateRange, Message: msg}
}

// EmptyDataset builds an EmptyDataset error. Callers must treat
// this as "no data", distinct from a zero-valued success.
func EmptyDataset(msg string) *Error {
	return &Error{Code: CodeEmptyDataset, Message: msg}
}

// storageErr classifies a collaborator read failure, preserving a
// Timeout classification when the context expired mid-read.
func storageErr(ctx context.Context, err error) *Error {
	if ctxErr := timeoutErr(ctx); ctxErr != nil {
		return ctxErr
	}
	return &Error{
		Code:    CodeStorageUnavailable,
		Message: err.Error(),
		cause:   err,
	}
}

// timeoutErr returns a Timeout error if ctx is done, nil otherwise.
// Long-running aggregations call this between iterations so partial
// results are discarded rather than delivered late.
func timeoutErr(ctx context.Context) *Error {
	if err := ctx.Err(); err != nil {
		return &Error{
			Code:    CodeTimeout,
			Message: "deadline exceeded during aggregation",
			cause:   err,
		}
	}
	return nil
}
