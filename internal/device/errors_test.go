package device

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

// timeoutError implements net.Error with Timeout() == true
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyNetworkError_Timeout(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://192.168.1.57",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: &timeoutError{},
		},
	}

	devErr := ClassifyNetworkError(err, "192.168.1.57")

	if devErr == nil {
		t.Fatal("Expected DeviceError, got nil")
	}
	if devErr.Type != ErrTypeTimeout {
		t.Errorf("Expected error type %v, got %v", ErrTypeTimeout, devErr.Type)
	}
	if devErr.Host != "192.168.1.57" {
		t.Errorf("Host = %s, want 192.168.1.57", devErr.Host)
	}
}

func TestClassifyNetworkError_ConnectionRefused(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://192.168.1.57",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: syscall.ECONNREFUSED,
		},
	}

	devErr := ClassifyNetworkError(err, "192.168.1.57")

	if devErr == nil {
		t.Fatal("Expected DeviceError, got nil")
	}
	if devErr.Type != ErrTypeConnectionRefused {
		t.Errorf("Expected error type %v, got %v", ErrTypeConnectionRefused, devErr.Type)
	}
}

func TestClassifyNetworkError_DNS(t *testing.T) {
	err := &net.DNSError{
		Err:        "no such host",
		Name:       "ambisense-missing.local",
		IsNotFound: true,
	}

	devErr := ClassifyNetworkError(err, "ambisense-missing.local")

	if devErr == nil {
		t.Fatal("Expected DeviceError, got nil")
	}
	if devErr.Type != ErrTypeDNS {
		t.Errorf("Expected error type %v, got %v", ErrTypeDNS, devErr.Type)
	}
	if !strings.Contains(devErr.Message, "ambisense-missing.local") {
		t.Errorf("Message should name the host, got %q", devErr.Message)
	}
}

func TestClassifyNetworkError_DNSInsideURLError(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://ambisense-missing.local",
		Err: &net.DNSError{
			Err:  "no such host",
			Name: "ambisense-missing.local",
		},
	}

	devErr := ClassifyNetworkError(err, "ambisense-missing.local")

	if devErr == nil {
		t.Fatal("Expected DeviceError, got nil")
	}
	if devErr.Type != ErrTypeDNS {
		t.Errorf("Expected error type %v, got %v", ErrTypeDNS, devErr.Type)
	}
}

func TestClassifyNetworkError_Generic(t *testing.T) {
	devErr := ClassifyNetworkError(errors.New("something odd"), "192.168.1.57")

	if devErr == nil {
		t.Fatal("Expected DeviceError, got nil")
	}
	if devErr.Type != ErrTypeNetwork {
		t.Errorf("Expected error type %v, got %v", ErrTypeNetwork, devErr.Type)
	}
}

func TestClassifyNetworkError_Nil(t *testing.T) {
	if devErr := ClassifyNetworkError(nil, "192.168.1.57"); devErr != nil {
		t.Errorf("ClassifyNetworkError(nil) = %v, want nil", devErr)
	}
}

func TestDeviceError_Error(t *testing.T) {
	err := &DeviceError{
		Type:    ErrTypeHTTP,
		Message: "endpoint rejected request",
	}

	if !strings.Contains(err.Error(), "HTTP Error") {
		t.Errorf("Error() = %q, should contain type name", err.Error())
	}
	if !strings.Contains(err.Error(), "endpoint rejected request") {
		t.Errorf("Error() = %q, should contain message", err.Error())
	}
}

func TestDeviceError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := NewParseError("parse failed", inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
		expected  bool
	}{
		{"network on network error", &DeviceError{Type: ErrTypeNetwork}, IsNetworkError, true},
		{"network on timeout", &DeviceError{Type: ErrTypeTimeout}, IsNetworkError, true},
		{"network on refused", &DeviceError{Type: ErrTypeConnectionRefused}, IsNetworkError, true},
		{"network on DNS", &DeviceError{Type: ErrTypeDNS}, IsNetworkError, true},
		{"network on HTTP", &DeviceError{Type: ErrTypeHTTP}, IsNetworkError, false},
		{"timeout on timeout", &DeviceError{Type: ErrTypeTimeout}, IsTimeout, true},
		{"timeout on parse", &DeviceError{Type: ErrTypeParse}, IsTimeout, false},
		{"http on http", NewHTTPError(500, "boom"), IsHTTPError, true},
		{"parse on parse", NewParseError("bad", nil), IsParseError, true},
		{"parse on http", NewHTTPError(500, "boom"), IsParseError, false},
		{"unreachable on unreachable", NewUnreachableError("192.168.1.57"), IsUnreachable, true},
		{"unreachable on network", &DeviceError{Type: ErrTypeNetwork}, IsUnreachable, false},
		{"network on plain error", errors.New("plain"), IsNetworkError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.predicate(tt.err); got != tt.expected {
				t.Errorf("predicate(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestErrorPredicates_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("fetch failed: %w", NewHTTPError(503, "unavailable"))

	if !IsHTTPError(wrapped) {
		t.Error("IsHTTPError should see through fmt.Errorf wrapping")
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"timeout", &DeviceError{Type: ErrTypeTimeout}, "not responding"},
		{"refused", &DeviceError{Type: ErrTypeConnectionRefused}, "refused"},
		{"dns", &DeviceError{Type: ErrTypeDNS}, "resolve"},
		{"http", NewHTTPError(503, "boom"), "HTTP 503"},
		{"parse", NewParseError("bad", nil), "parse"},
		{"unreachable", NewUnreachableError("host"), "unreachable"},
		{"plain error", errors.New("plain failure"), "plain failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := GetShortErrorMessage(tt.err)
			if !strings.Contains(msg, tt.contains) {
				t.Errorf("GetShortErrorMessage() = %q, should contain %q", msg, tt.contains)
			}
		})
	}
}
