package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// StatusError carries the HTTP status of a failed request.
type StatusError struct {
	Err        error
	StatusCode int
}

func (e *StatusError) Error() string {
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// HTTPOutcome classifies an HTTP status code: 408, 429 and 5xx are
// transient, other 4xx are permanent.
func HTTPOutcome(statusCode int) Outcome {
	switch {
	case statusCode < 400:
		return OutcomeOK
	case statusCode == 408, statusCode == 429, statusCode >= 500:
		return OutcomeTransient
	default:
		return OutcomePermanent
	}
}

// IsNetworkTransient reports whether err looks like a recoverable network
// failure (timeouts, resets, DNS hiccups).
func IsNetworkTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
