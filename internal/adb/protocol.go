package adb

import (
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"strconv"
)

// Wire constants for the smart-socket protocol
const (
	statusOkay = "OKAY"
	statusFail = "FAIL"

	// maxFrameLen bounds length-prefixed payloads. The server never sends
	// frames anywhere near this; anything larger is a protocol violation.
	maxFrameLen = 1 << 20
)

// writeRequest sends one length-prefixed request on the wire.
// The prefix is the payload length as 4 lowercase hex digits.
func writeRequest(w io.Writer, request string) error {
	if len(request) > 0xffff {
		return newProtocolError(fmt.Sprintf("request too long (%d bytes)", len(request)), nil)
	}
	framed := fmt.Sprintf("%04x%s", len(request), request)
	if _, err := io.WriteString(w, framed); err != nil {
		return &DiscoveryError{
			Kind:    ErrKindTransport,
			Message: "failed to send request to adb server",
			Err:     err,
		}
	}
	return nil
}

// readStatus reads the 4-byte status word that answers every request.
// On FAIL the server follows up with a length-prefixed reason, which is
// folded into the returned error.
func readStatus(r io.Reader, request string) error {
	status := make([]byte, 4)
	if _, err := io.ReadFull(r, status); err != nil {
		return newProtocolError("failed to read status from adb server", err)
	}

	switch string(status) {
	case statusOkay:
		return nil
	case statusFail:
		reason, err := readFrame(r)
		if err != nil {
			return newProtocolError("failed to read FAIL reason", err)
		}
		return newFailError(request, reason)
	default:
		if !isPrintable(status) {
			return newProtocolError(fmt.Sprintf("unexpected status %q", hex.EncodeToString(status)), nil)
		}
		return newProtocolError(fmt.Sprintf("unexpected status %q", string(status)), nil)
	}
}

// readFrame reads one length-prefixed payload
func readFrame(r io.Reader) (string, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return "", fmt.Errorf("failed to read frame length: %w", err)
	}

	n, err := strconv.ParseUint(string(lenBuf), 16, 32)
	if err != nil {
		return "", fmt.Errorf("invalid frame length %q: %w", string(lenBuf), err)
	}
	if n > maxFrameLen {
		return "", fmt.Errorf("frame length %d exceeds limit", n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", fmt.Errorf("failed to read frame payload: %w", err)
	}
	return string(payload), nil
}

// roundTrip sends a request and checks its status on an established
// connection
func roundTrip(conn net.Conn, request string) error {
	if err := writeRequest(conn, request); err != nil {
		return err
	}
	return readStatus(conn, request)
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 32 || c > 126 {
			return false
		}
	}
	return true
}
