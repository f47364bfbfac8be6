package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors.
// Kind is one of the sentinel errors below; Cause is the underlying failure.
type AppError struct {
	Code    string
	Message string
	Kind    error
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Error kinds
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrOCRFailure           = errors.New("ocr failure")
	ErrTextRead             = errors.New("text read failure")
	ErrExtractionFailed     = errors.New("extraction failed")
	ErrMalformedModelOutput = errors.New("malformed model output")
	ErrStorage              = errors.New("storage error")
	ErrDatabase             = errors.New("database error")
)

// Error codes
const (
	CodeConfig               = "CONFIG_ERROR"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeUnsupportedFormat    = "UNSUPPORTED_FORMAT"
	CodeOCRFailure           = "OCR_FAILURE"
	CodeTextRead             = "TEXT_READ_FAILURE"
	CodeExtractionFailed     = "EXTRACTION_FAILED"
	CodeMalformedModelOutput = "MALFORMED_MODEL_OUTPUT"
	CodeStorage              = "STORAGE_ERROR"
	CodeDatabase             = "DATABASE_ERROR"
)

// NewAppError builds an AppError without an underlying cause.
func NewAppError(code, message string, kind error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// WrapAppError builds an AppError around cause.
func WrapAppError(code, message string, kind, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
		Cause:   cause,
	}
}

func UnsupportedFormatError(format string) *AppError {
	return NewAppError(CodeUnsupportedFormat, fmt.Sprintf("unsupported format %q", format), ErrUnsupportedFormat)
}

func OCRFailureError(message string, cause error) *AppError {
	return WrapAppError(CodeOCRFailure, message, ErrOCRFailure, cause)
}

func TextReadError(message string, cause error) *AppError {
	return WrapAppError(CodeTextRead, message, ErrTextRead, cause)
}

func ExtractionFailedError(message string, cause error) *AppError {
	return WrapAppError(CodeExtractionFailed, message, ErrExtractionFailed, cause)
}

func MalformedModelOutputError(sample string) *AppError {
	return NewAppError(CodeMalformedModelOutput, "could not parse JSON from model output. Raw: "+sample, ErrMalformedModelOutput)
}

// CodeOf returns the AppError code found in err's chain, or "".
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// gRPC error helpers

func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

// ToStatus maps a pipeline error onto a gRPC status.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrTextRead):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrExtractionFailed), errors.Is(err, ErrMalformedModelOutput):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
