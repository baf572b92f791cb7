package adb

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorKind categorizes discovery and transport failures
type ErrorKind int

const (
	// ErrKindServerUnavailable indicates the ADB server socket could not be
	// reached (server not running, wrong port)
	ErrKindServerUnavailable ErrorKind = iota
	// ErrKindProtocol indicates a malformed or unexpected server response
	ErrKindProtocol
	// ErrKindDeviceNotFound indicates the requested serial is unknown to the
	// server (device unplugged between listing and selection)
	ErrKindDeviceNotFound
	// ErrKindTransport indicates an established device connection failed
	ErrKindTransport
	// ErrKindCommand indicates the server rejected a request with FAIL
	ErrKindCommand
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case ErrKindServerUnavailable:
		return "Server Unavailable"
	case ErrKindProtocol:
		return "Protocol Error"
	case ErrKindDeviceNotFound:
		return "Device Not Found"
	case ErrKindTransport:
		return "Transport Error"
	case ErrKindCommand:
		return "Command Failed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// DiscoveryError represents a failure talking to the ADB server or to a
// device behind it
type DiscoveryError struct {
	Kind    ErrorKind // Category of error
	Message string    // Human-readable error message
	Serial  string    // Device serial (when the error concerns one device)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *DiscoveryError) Error() string {
	msg := e.Message
	if e.Serial != "" {
		msg = fmt.Sprintf("%s (serial %s)", msg, e.Serial)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// newDialError classifies a dial failure against the ADB server socket
func newDialError(addr string, err error) *DiscoveryError {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &DiscoveryError{
			Kind:    ErrKindServerUnavailable,
			Message: fmt.Sprintf("adb server refused connection on %s - is it running? (try: adb start-server)", addr),
			Err:     err,
		}
	}
	return &DiscoveryError{
		Kind:    ErrKindServerUnavailable,
		Message: fmt.Sprintf("cannot reach adb server on %s", addr),
		Err:     err,
	}
}

// newProtocolError wraps a malformed server response
func newProtocolError(message string, err error) *DiscoveryError {
	return &DiscoveryError{
		Kind:    ErrKindProtocol,
		Message: message,
		Err:     err,
	}
}

// newFailError classifies a FAIL response from the server. The server
// reports unknown serials with a "device '<serial>' not found" message.
func newFailError(request string, reason string) *DiscoveryError {
	if strings.Contains(reason, "not found") {
		return &DiscoveryError{
			Kind:    ErrKindDeviceNotFound,
			Message: reason,
		}
	}
	return &DiscoveryError{
		Kind:    ErrKindCommand,
		Message: fmt.Sprintf("adb server rejected %q: %s", request, reason),
	}
}

// IsServerUnavailable checks whether err means the adb server is down
func IsServerUnavailable(err error) bool {
	var de *DiscoveryError
	return errors.As(err, &de) && de.Kind == ErrKindServerUnavailable
}

// IsDeviceNotFound checks whether err means the serial is unknown
func IsDeviceNotFound(err error) bool {
	var de *DiscoveryError
	return errors.As(err, &de) && de.Kind == ErrKindDeviceNotFound
}

// GetShortErrorMessage returns a concise, user-friendly message for a
// discovery error
func GetShortErrorMessage(err error) string {
	var de *DiscoveryError
	if !errors.As(err, &de) {
		return err.Error()
	}

	switch de.Kind {
	case ErrKindServerUnavailable:
		return "adb server not reachable - run 'adb start-server'"
	case ErrKindDeviceNotFound:
		if de.Serial != "" {
			return fmt.Sprintf("device %s is gone - reconnect and refresh", de.Serial)
		}
		return "device is gone - reconnect and refresh"
	case ErrKindTransport:
		return "device connection dropped"
	case ErrKindProtocol:
		return "unexpected response from adb server"
	default:
		return de.Message
	}
}
