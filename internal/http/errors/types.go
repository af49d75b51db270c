// Package errors carries typed application errors to the HTTP boundary.
// Error codes follow the OAuth 2.0 taxonomy so relying clients can branch
// on machine-readable values.
package errors

import "net/http"

// Code is a machine-readable error identifier, serialized as "error".
type Code string

const (
	CodeInvalidRequest          Code = "invalid_request"
	CodeInvalidClient           Code = "invalid_client"
	CodeInvalidRedirectURI      Code = "invalid_redirect_uri"
	CodeInvalidGrant            Code = "invalid_grant"
	CodeUnsupportedResponseType Code = "unsupported_response_type"
	CodeUnsupportedGrantType    Code = "unsupported_grant_type"
	CodeLoginRequired           Code = "sso_login_required"
	CodeRateLimited             Code = "rate_limited"
	CodeServerError             Code = "server_error"
)

// AppError is the error type services return to controllers. Internal wraps
// the cause for logs; Description is safe for the response body.
type AppError struct {
	Code        Code
	Status      int
	Description string
	Internal    error
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return string(e.Code) + ": " + e.Internal.Error()
	}
	return string(e.Code) + ": " + e.Description
}

func (e *AppError) Unwrap() error { return e.Internal }

// WithInternal attaches the underlying cause without changing the response.
func (e *AppError) WithInternal(err error) *AppError {
	cp := *e
	cp.Internal = err
	return &cp
}

func New(code Code, status int, description string) *AppError {
	return &AppError{Code: code, Status: status, Description: description}
}

func InvalidRequest(description string) *AppError {
	return New(CodeInvalidRequest, http.StatusBadRequest, description)
}

func InvalidClient(description string) *AppError {
	return New(CodeInvalidClient, http.StatusUnauthorized, description)
}

func InvalidRedirectURI(description string) *AppError {
	return New(CodeInvalidRedirectURI, http.StatusBadRequest, description)
}

func InvalidGrant(description string) *AppError {
	return New(CodeInvalidGrant, http.StatusBadRequest, description)
}

func UnsupportedResponseType(description string) *AppError {
	return New(CodeUnsupportedResponseType, http.StatusBadRequest, description)
}

func UnsupportedGrantType(description string) *AppError {
	return New(CodeUnsupportedGrantType, http.StatusBadRequest, description)
}

func LoginRequired(description string) *AppError {
	return New(CodeLoginRequired, http.StatusUnauthorized, description)
}

func RateLimited(description string) *AppError {
	return New(CodeRateLimited, http.StatusTooManyRequests, description)
}

func Internal(err error) *AppError {
	return &AppError{
		Code:        CodeServerError,
		Status:      http.StatusInternalServerError,
		Description: "internal error",
		Internal:    err,
	}
}
