package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrTransport marks failures where no usable HTTP response came back.
var ErrTransport = errors.New("backend unreachable")

// ErrUnsupportedURL is returned for absolute URLs that are not http(s) with a host.
var ErrUnsupportedURL = errors.New("unsupported url")

// GenericFailure is shown when neither the server nor the transport gave a usable message.
const GenericFailure = "action failed, please retry"

// APIError is a non-2xx answer from the upstream API.
type APIError struct {
	Status  int
	Message string
	Path    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %s: %d %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("backend %s: %d %s", e.Path, e.Status, http.StatusText(e.Status))
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// UserMessage converts err into text fit for a notification. Business errors
// carry the server message; everything else falls back to fallback.
func UserMessage(err error, fallback string) string {
	if fallback == "" {
		fallback = GenericFailure
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// StatusCode maps an upstream failure onto the status our own API answers with.
func StatusCode(err error) int {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
