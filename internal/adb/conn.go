package adb

import (
	"context"
	"io"
	"strings"
)

// Conn is a logical connection to one device. The underlying protocol is
// connection-per-command: the server closes a pinned stream when the shell
// command exits, so each Shell call opens its own socket and the handle
// itself holds no descriptor.
type Conn struct {
	host   *Host
	serial string
}

// Serial returns the serial the connection is pinned to
func (c *Conn) Serial() string {
	return c.serial
}

// Shell runs a shell command on the device and returns its combined
// output. The call aborts abruptly when ctx is cancelled; partial output
// is discarded.
func (c *Conn) Shell(ctx context.Context, command string) (string, error) {
	conn, err := c.host.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	defer abortOnCancel(ctx, conn)()

	request := "host:transport:" + c.serial
	if err := roundTrip(conn, request); err != nil {
		return "", tagSerial(err, c.serial)
	}

	request = "shell:" + command
	if err := roundTrip(conn, request); err != nil {
		return "", tagSerial(err, c.serial)
	}

	// Output streams raw until the server closes the connection
	var out strings.Builder
	if _, err := io.Copy(&out, conn); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &DiscoveryError{
			Kind:    ErrKindTransport,
			Message: "shell output stream failed",
			Serial:  c.serial,
			Err:     err,
		}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return out.String(), nil
}
