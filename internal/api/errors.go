package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Kind categorizes a failed call.
type Kind string

const (
	// KindTransport means the server could not be reached or the
	// connection failed mid-request.
	KindTransport Kind = "transport"

	// KindAuth means the session is missing or expired (401).
	KindAuth Kind = "auth"

	// KindValidation means the server rejected the request with a 4xx and
	// a message, e.g. a duplicate username.
	KindValidation Kind = "validation"

	// KindNotFound means the target no longer exists, typically a request
	// that was already resolved.
	KindNotFound Kind = "not_found"

	// KindServer means a 5xx or an undecodable response body.
	KindServer Kind = "server"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Error is the single normalized error returned by every Client method.
type Error struct {
	// Op names the client operation, e.g. "login" or "search users".
	Op string

	// Kind categorizes the failure.
	Kind Kind

	// Status is the HTTP status code, or 0 for transport failures.
	Status int

	// Message is the human-readable reason.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return KindOf(err) == KindTransport
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// Message returns the human-readable message of an *Error, or err.Error()
// for any other error.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

// errorPayload covers both error shapes the server emits.
type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// decodeError builds an *Error from a non-2xx response.
func decodeError(op string, resp *http.Response) *Error {
	apiErr := &Error{
		Op:     op,
		Kind:   kindForStatus(resp.StatusCode),
		Status: resp.StatusCode,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(body) > 0 {
		var payload errorPayload
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = strings.TrimSpace(payload.Message)
			if apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(payload.Error)
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.ToLower(http.StatusText(resp.StatusCode))
	}
	return apiErr
}
