package apperrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeConfiguration        Code = "CONFIGURATION"
	CodeNotFound             Code = "NOT_FOUND"
	CodeMediaUpload          Code = "MEDIA_UPLOAD"
	CodeUnsupportedMedia     Code = "UNSUPPORTED_MEDIA"
	CodePlatformPublish      Code = "PLATFORM_PUBLISH"
	CodeProcessingTimeout    Code = "PROCESSING_TIMEOUT"
	CodeProvidersUnavailable Code = "PROVIDERS_UNAVAILABLE"
	CodeValidation           Code = "VALIDATION"
)

type AppError struct {
	Code    Code
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func Configuration(message string) *AppError {
	return New(CodeConfiguration, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func MediaUpload(message string, err error) *AppError {
	return Wrap(CodeMediaUpload, message, err)
}

func UnsupportedMedia(message string) *AppError {
	return New(CodeUnsupportedMedia, message)
}

func PlatformPublish(message string, err error) *AppError {
	return Wrap(CodePlatformPublish, message, err)
}

func ProcessingTimeout(message string) *AppError {
	return New(CodeProcessingTimeout, message)
}

func ProvidersUnavailable(message string) *AppError {
	return New(CodeProvidersUnavailable, message)
}

func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// CodeOf returns the AppError code carried by err, or "" when err is
// not an AppError.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
