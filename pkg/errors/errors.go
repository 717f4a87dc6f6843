package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error identifier written to the `error` field of responses.
type Code string

const (
	CodeMissingParameters Code = "missing_parameters"
	CodeInvalidFormat     Code = "invalid_format"
	CodeValidation        Code = "validation_error"
	CodeInvalidKey        Code = "invalid_key"
	CodeUnauthorized      Code = "unauthorized"
	CodeRevokedKey        Code = "revoked_key"
	CodeExpiredKey        Code = "expired_key"
	CodeMachineLimit      Code = "machine_limit_exceeded"
	CodeForbidden         Code = "forbidden"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeRateLimit         Code = "rate_limit_exceeded"
	CodeInternal          Code = "internal_error"
	CodeDatabase          Code = "database_error"
	CodeDependency        Code = "dependency_error"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeMissingParameters: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "required parameters are missing",
		DetailsAllowed: true,
	},
	CodeInvalidFormat: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "invalid key format, expected XXXX-XXXX-XXXX-XXXX",
	},
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeInvalidKey: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "license key not found",
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeRevokedKey: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "this license has been revoked",
	},
	CodeExpiredKey: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "this license has expired",
	},
	CodeMachineLimit: {
		HTTPStatus:     http.StatusForbidden,
		PublicMessage:  "this license is already activated on the maximum number of machines",
		DetailsAllowed: true,
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeRateLimit: {
		HTTPStatus:     http.StatusTooManyRequests,
		PublicMessage:  "too many requests, try again later",
		DetailsAllowed: true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDatabase: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "license database unavailable",
	},
	CodeDependency: {
		HTTPStatus:    http.StatusServiceUnavailable,
		Retryable:     true,
		PublicMessage: "dependency unavailable",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Public reports whether the caller-supplied message of an error with this code may be
// shown to clients. Server-side failures always expose the generic public message.
func (c Code) Public() bool {
	return MetadataFor(c).HTTPStatus < http.StatusInternalServerError
}

type Error struct {
	code    Code
	message string
	details map[string]any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails merges the supplied fields into the error details.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e == nil {
		return nil
	}
	if e.details == nil {
		e.details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.details[k] = v
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code carried by err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}
