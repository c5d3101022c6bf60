package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// CMIS exception names reported by the browser binding.
const (
	excObjectNotFound        = "objectNotFound"
	excContentAlreadyExists  = "contentAlreadyExists"
	excConstraint            = "constraint"
	excNameConstraint        = "nameConstraintViolation"
	excStreamNotSupported    = "streamNotSupported"
	excPermissionDenied      = "permissionDenied"
	excInvalidArgument       = "invalidArgument"
	excNotSupported          = "notSupported"
	excFilterNotValid        = "filterNotValid"
	excUnauthorizedException = "unauthorized"
)

// Error is a failed browser binding call.
type Error struct {
	// Status is the HTTP status code.
	Status int

	// Exception is the CMIS exception name, when the body carried one.
	Exception string

	// Message is the repository's message.
	Message string

	// RetryAfter is the Retry-After header in seconds, for 429 and 503.
	RetryAfter int

	kind error
}

// Error implements the error interface.
func (e *Error) Error() string {
	name := e.Exception
	if name == "" {
		name = http.StatusText(e.Status)
	}
	if e.Message == "" {
		return fmt.Sprintf("cmis: %s (%d)", name, e.Status)
	}
	return fmt.Sprintf("cmis: %s (%d): %s", name, e.Status, e.Message)
}

// Unwrap returns the domain error this maps to, if any.
func (e *Error) Unwrap() error {
	return e.kind
}

// Temporary returns true for failures worth retrying.
func (e *Error) Temporary() bool {
	switch e.Status {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// exceptionBody is the JSON error document.
type exceptionBody struct {
	Exception string `json:"exception"`
	Message   string `json:"message"`
}

// readError builds an Error from a non-2xx response.
func readError(resp *http.Response) *Error {
	e := &Error{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body exceptionBody
	if json.Unmarshal(raw, &body) == nil && body.Exception != "" {
		e.Exception = body.Exception
		e.Message = body.Message
	} else if len(raw) > 0 && len(raw) < 512 {
		e.Message = string(raw)
	}

	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			e.RetryAfter = secs
		}
	}

	e.kind = classify(e.Status, e.Exception)
	return e
}

// classify maps a status and exception name to a domain error.
func classify(status int, exception string) error {
	switch exception {
	case excObjectNotFound:
		return domain.ErrNotFound
	case excContentAlreadyExists, excNameConstraint:
		return domain.ErrContentAlreadyExists
	case excStreamNotSupported:
		return domain.ErrStreamNotSupported
	case excPermissionDenied, excUnauthorizedException:
		return domain.ErrAuthInvalid
	case excInvalidArgument, excFilterNotValid:
		return domain.ErrInvalidInput
	}

	switch status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrAuthInvalid
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return domain.ErrRepositoryUnavailable
	}
	return nil
}

// IsException returns true if err is an Error carrying the named exception.
func IsException(err error, exception string) bool {
	var e *Error
	return errors.As(err, &e) && e.Exception == exception
}

// isConflict returns true for the exceptions a repository reports when a
// relationship already exists.
func isConflict(err error) bool {
	return errors.Is(err, domain.ErrContentAlreadyExists) || IsException(err, excConstraint)
}

// isUnsupported returns true when the object cannot take a content stream.
func isUnsupported(err error) bool {
	return errors.Is(err, domain.ErrStreamNotSupported) || IsException(err, excNotSupported)
}
