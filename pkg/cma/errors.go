package cma

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents an error returned by the API, or an error payload
// attached to a failed async action.
type APIError struct {
	// StatusCode is the HTTP status of the response. It is zero for errors
	// embedded in a resource body.
	StatusCode int             `json:"-"                   yaml:"-"`
	Sys        ErrorSys        `json:"sys"                 yaml:"sys"`
	Message    string          `json:"message,omitempty"   yaml:"message,omitempty"`
	RequestID  string          `json:"requestId,omitempty" yaml:"requestId,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"   yaml:"-"`
}

// ErrorSys identifies the kind of error.
type ErrorSys struct {
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id"   yaml:"id"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	id := e.Sys.ID
	if id == "" {
		id = "UnknownError"
	}

	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status: %d)", id, msg, e.StatusCode)
	}

	return fmt.Sprintf("%s: %s", id, msg)
}

// Is matches errors of the same sys id, so the package level error values
// below can be used with errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}

	return t.Sys.ID != "" && t.Sys.ID == e.Sys.ID
}

// Error ids returned by the API.
const (
	ErrorIDNotFound           = "NotFound"
	ErrorIDAccessTokenInvalid = "AccessTokenInvalid"
	ErrorIDAccessDenied       = "AccessDenied"
	ErrorIDRateLimitExceeded  = "RateLimitExceeded"
	ErrorIDVersionMismatch    = "VersionMismatch"
	ErrorIDValidationFailed   = "ValidationFailed"
	ErrorIDBadRequest         = "BadRequest"
	ErrorIDUnprocessable      = "UnprocessableEntity"
	ErrorIDServerError        = "ServerError"
)

// Common error types.
var (
	ErrNotFound         = &APIError{Sys: ErrorSys{Type: "Error", ID: ErrorIDNotFound}}
	ErrUnauthorized     = &APIError{Sys: ErrorSys{Type: "Error", ID: ErrorIDAccessTokenInvalid}}
	ErrForbidden        = &APIError{Sys: ErrorSys{Type: "Error", ID: ErrorIDAccessDenied}}
	ErrRateLimited      = &APIError{Sys: ErrorSys{Type: "Error", ID: ErrorIDRateLimitExceeded}}
	ErrVersionMismatch  = &APIError{Sys: ErrorSys{Type: "Error", ID: ErrorIDVersionMismatch}}
	ErrValidationFailed = &APIError{Sys: ErrorSys{Type: "Error", ID: ErrorIDValidationFailed}}
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired        = errors.New("config is required")
	ErrAPIEndpointRequired   = errors.New("API endpoint is required")
	ErrAccessTokenRequired   = errors.New("access token is required")
	ErrSpaceIDRequired       = errors.New("space ID is required")
	ErrEnvironmentIDRequired = errors.New("environment ID is required")
	ErrResourceIDRequired    = errors.New("resource ID is required")
	ErrNoEntities            = errors.New("at least one entity is required")
)

// NewAPIErrorFromResponse decodes an error body. Bodies that are not in the
// API error shape still produce an APIError carrying the status code.
func NewAPIErrorFromResponse(statusCode int, body []byte) *APIError {
	apiErr := &APIError{}

	if len(body) > 0 {
		err := json.Unmarshal(body, apiErr)
		if err != nil {
			apiErr = &APIError{Message: string(body)}
		}
	}

	apiErr.StatusCode = statusCode

	if apiErr.Sys.ID == "" {
		apiErr.Sys = ErrorSys{Type: "Error", ID: errorIDForStatus(statusCode)}
	}

	return apiErr
}

func errorIDForStatus(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return ErrorIDBadRequest
	case http.StatusUnauthorized:
		return ErrorIDAccessTokenInvalid
	case http.StatusForbidden:
		return ErrorIDAccessDenied
	case http.StatusNotFound:
		return ErrorIDNotFound
	case http.StatusConflict:
		return ErrorIDVersionMismatch
	case http.StatusUnprocessableEntity:
		return ErrorIDUnprocessable
	case http.StatusTooManyRequests:
		return ErrorIDRateLimitExceeded
	}

	if statusCode >= http.StatusInternalServerError {
		return ErrorIDServerError
	}

	return ""
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is an invalid token error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRateLimited checks if the error reports an exhausted rate limit.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsVersionMismatch checks if the error is an optimistic locking conflict.
func IsVersionMismatch(err error) bool {
	return errors.Is(err, ErrVersionMismatch)
}
