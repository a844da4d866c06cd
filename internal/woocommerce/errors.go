package woocommerce

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConfigMissing       = errors.New("woocommerce: base url, consumer key and consumer secret are required")
	ErrUpstreamUnavailable = errors.New("woocommerce: upstream unavailable")
	ErrUpstreamRejected    = errors.New("woocommerce: upstream rejected request")
	ErrOrderNotFound       = errors.New("woocommerce: order not found")
	ErrAuthRejected        = errors.New("woocommerce: credentials rejected")
	ErrMalformedResponse   = errors.New("woocommerce: malformed response")
)

// maxErrorBody bounds the upstream body kept for diagnostics.
const maxErrorBody = 2048

// UpstreamError is a non-2xx answer from the store. It always matches
// ErrUpstreamRejected and, for 404 and 401/403, the narrower sentinel too.
type UpstreamError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("woocommerce %s: status %d: %s", e.Op, e.StatusCode, msg)
}

func (e *UpstreamError) Unwrap() []error {
	errs := []error{ErrUpstreamRejected}
	switch e.StatusCode {
	case http.StatusNotFound:
		errs = append(errs, ErrOrderNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		errs = append(errs, ErrAuthRejected)
	}
	return errs
}

func newUpstreamError(op string, status int, body []byte) *UpstreamError {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload) // best effort
	return &UpstreamError{
		Op:         op,
		StatusCode: status,
		Code:       payload.Code,
		Message:    payload.Message,
		Body:       truncate(string(body), maxErrorBody),
	}
}

func malformed(op string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedResponse, op, fmt.Sprintf(format, args...))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
