package exchanges

import (
	"fmt"
	"net/http"

	"lyrasnap/pkg/errors"
)

// ErrInvalidRequest indicates validation failures before hitting exchange API.
var ErrInvalidRequest = errors.New("invalid exchange request")

// APIError is a non-2xx HTTP status or an error object returned in the response envelope.
type APIError struct {
	Exchange   string
	Method     string
	HTTPStatus int // 0 when the transport succeeded and the envelope carried the error
	Code       int // exchange error code, 0 when absent
	Message    string
}

func (e *APIError) Error() string {
	if e.HTTPStatus != 0 && e.Code == 0 {
		return fmt.Sprintf("%s %s: http %d: %s", e.Exchange, e.Method, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s %s: error %d: %s", e.Exchange, e.Method, e.Code, e.Message)
}

// StatusCode exposes the HTTP status to the retry middleware.
func (e *APIError) StatusCode() int {
	return e.HTTPStatus
}

// Unwrap classifies the failure so callers can errors.Is it.
func (e *APIError) Unwrap() error {
	switch {
	case e.HTTPStatus == http.StatusTooManyRequests:
		return errors.ErrRateLimitExceeded
	case e.HTTPStatus >= 500:
		return errors.ErrExchangeUnavailable
	}
	return nil
}
