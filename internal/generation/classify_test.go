package generation_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"

	"github.com/phrazzld/studyquest/internal/generation"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyTransportError(t *testing.T) {
	t.Parallel()

	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"connection refused", fmt.Errorf("post: %w", refused), generation.ErrServiceUnavailable},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "ollama.invalid"}, generation.ErrServiceUnavailable},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), generation.ErrTimeout},
		{"net timeout", &net.OpError{Op: "read", Net: "tcp", Err: timeoutErr{}}, generation.ErrTimeout},
		{"other", errors.New("unexpected EOF"), generation.ErrUnknownTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := generation.ClassifyTransportError(tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}

	assert.NoError(t, generation.ClassifyTransportError(nil))
}

func TestClassifyTransportError_KeepsMessage(t *testing.T) {
	t.Parallel()

	err := generation.ClassifyTransportError(errors.New("tls: handshake failure"))

	var transportErr *generation.TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "tls: handshake failure", transportErr.Msg)
	assert.Contains(t, err.Error(), "tls: handshake failure")
}

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, generation.ClassifyStatus(http.StatusNotFound, `{"error":"model not found"}`), generation.ErrModelNotInstalled)
	assert.ErrorIs(t, generation.ClassifyStatus(http.StatusGatewayTimeout, ""), generation.ErrTimeout)

	err := generation.ClassifyStatus(http.StatusInternalServerError, "boom")
	assert.ErrorIs(t, err, generation.ErrUnknownTransport)
	assert.Contains(t, err.Error(), "500")
}
