package adb

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/droidtriage/internal/logging"
)

const (
	// DefaultAddr is the address the ADB server listens on
	DefaultAddr = "127.0.0.1:5037"

	// DefaultDialTimeout bounds how long we wait for the server socket
	DefaultDialTimeout = 3 * time.Second
)

// Host is a client handle for one ADB server. The zero cost of a Host
// reflects the protocol: every query opens a fresh connection, which is
// how the server expects to be used.
type Host struct {
	// Addr is the server address ("127.0.0.1:5037" unless overridden)
	Addr string

	// DialTimeout bounds connection establishment to the server socket
	DialTimeout time.Duration
}

// NewHost creates a client for the ADB server at addr. An empty addr
// selects the default local server.
func NewHost(addr string) *Host {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Host{
		Addr:        addr,
		DialTimeout: DefaultDialTimeout,
	}
}

// dial opens a fresh connection to the server socket
func (h *Host) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: h.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", h.Addr)
	if err != nil {
		return nil, newDialError(h.Addr, err)
	}
	return conn, nil
}

// Devices lists every device the server currently knows about, including
// offline and unauthorized ones. The returned slice replaces any previous
// listing wholesale.
func (h *Host) Devices(ctx context.Context) ([]Device, error) {
	conn, err := h.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	defer abortOnCancel(ctx, conn)()

	const request = "host:devices-l"
	if err := roundTrip(conn, request); err != nil {
		return nil, err
	}

	payload, err := readFrame(conn)
	if err != nil {
		return nil, newProtocolError("failed to read device list", err)
	}

	devices := parseDeviceList(payload)
	logging.Debug("Listed devices from adb server",
		zap.String("addr", h.Addr),
		zap.Int("count", len(devices)),
	)
	for _, dev := range devices {
		logging.Debug("Device listed", zap.Stringer("device", dev))
	}
	return devices, nil
}

// Transport resolves a serial into a live device connection. The server is
// asked to pin a throwaway connection to the device, which surfaces
// "device not found" now rather than on first use - a device can vanish
// between listing and selection.
func (h *Host) Transport(ctx context.Context, serial string) (*Conn, error) {
	conn, err := h.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	defer abortOnCancel(ctx, conn)()

	request := "host:transport:" + serial
	if err := roundTrip(conn, request); err != nil {
		return nil, tagSerial(err, serial)
	}

	logging.LogDeviceEvent(serial, "transport established")
	return &Conn{host: h, serial: serial}, nil
}

// Connect asks the server to attach a wireless-debugging endpoint
// ("host:connect:<ip:port>"). The server answers OKAY even when the TCP
// connection fails, so the response text is inspected too.
func (h *Host) Connect(ctx context.Context, addr string) (string, error) {
	conn, err := h.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	defer abortOnCancel(ctx, conn)()

	request := "host:connect:" + addr
	if err := roundTrip(conn, request); err != nil {
		return "", err
	}

	response, err := readFrame(conn)
	if err != nil {
		return "", newProtocolError("failed to read connect response", err)
	}
	if strings.Contains(response, "failed") || strings.Contains(response, "unable") {
		return "", &DiscoveryError{
			Kind:    ErrKindCommand,
			Message: fmt.Sprintf("connect to %s failed: %s", addr, response),
		}
	}
	return response, nil
}

// tagSerial attaches the serial to a DiscoveryError for context
func tagSerial(err error, serial string) error {
	if de, ok := err.(*DiscoveryError); ok && de.Serial == "" {
		de.Serial = serial
	}
	return err
}

// abortOnCancel tears the connection down when ctx is cancelled. This is
// deliberate abrupt abandonment: pending reads fail immediately instead of
// draining the device. The returned stop function releases the watcher and
// must be deferred by the caller.
func abortOnCancel(ctx context.Context, conn net.Conn) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}
	released := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.SetDeadline(time.Now())
		case <-released:
		}
	}()
	return func() { close(released) }
}
