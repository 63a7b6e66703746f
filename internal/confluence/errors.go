package confluence

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeHTTPStatus = "CONFLUENCE_HTTP_STATUS"
	textCodeTransport  = "CONFLUENCE_TRANSPORT"
	textCodeDecode     = "CONFLUENCE_DECODE"
)

var (
	// ErrMalformedResponse marks a response body that could not be decoded.
	ErrMalformedResponse = errors.New("confluence: malformed response")
	// ErrCredentialRequired is returned when a client is built without credentials.
	ErrCredentialRequired = errors.New("confluence: credential is required")
	// ErrBaseURLRequired is returned when a client is built without a base URL.
	ErrBaseURLRequired = errors.New("confluence: base url is required")
)

// StatusError is an HTTP response with status >= 400.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("confluence: %s %s returned %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("confluence: %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}

// retryable reports whether a failed GET is worth repeating: transport
// failures, throttling and server errors. Decode errors and client errors are final.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == http.StatusTooManyRequests || statusErr.Status >= 500
	}
	return true
}

// wrapError categorises a raw client error with go-errors. Context errors are
// returned as is so callers can match them with errors.Is.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if goerrors.IsWrapped(err) {
		return err
	}

	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return goerrors.Wrap(err, categoryForStatus(statusErr.Status), "confluence "+op+" failed").
			WithCode(statusErr.Status).
			WithTextCode(textCodeHTTPStatus).
			WithMetadata(map[string]any{
				"method": statusErr.Method,
				"path":   statusErr.Path,
				"status": statusErr.Status,
			})
	case errors.Is(err, ErrMalformedResponse):
		return goerrors.Wrap(err, goerrors.CategoryExternal, "confluence "+op+" returned an unreadable body").
			WithTextCode(textCodeDecode)
	default:
		return goerrors.Wrap(err, goerrors.CategoryExternal, "confluence "+op+" request failed").
			WithTextCode(textCodeTransport)
	}
}

func categoryForStatus(status int) goerrors.Category {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return goerrors.CategoryAuth
	case http.StatusNotFound:
		return goerrors.CategoryNotFound
	case http.StatusConflict:
		return goerrors.CategoryConflict
	default:
		return goerrors.CategoryExternal
	}
}
