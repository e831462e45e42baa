package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ClassifyTransportError maps a failed request onto the generation error
// taxonomy. Providers call it before any response body is inspected.
func ClassifyTransportError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	return &TransportError{Msg: err.Error(), Err: err}
}

// ClassifyStatus maps a non-2xx HTTP status onto the taxonomy. body is an
// excerpt of the response used for diagnostics only.
func ClassifyStatus(status int, body string) error {
	body = strings.TrimSpace(body)
	if len(body) > 200 {
		body = body[:200]
	}

	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrModelNotInstalled, body)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", ErrTimeout, status)
	default:
		return &TransportError{Msg: fmt.Sprintf("unexpected status %d: %s", status, body)}
	}
}
