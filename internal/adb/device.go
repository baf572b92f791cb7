package adb

import (
	"fmt"
	"strings"
)

// Device is an immutable snapshot of one entry from the ADB server's
// device list. Snapshots are replaced wholesale on refresh, never patched.
type Device struct {
	// Serial is the device identity (e.g. "emulator-5554", "R58M12ABCDE")
	Serial string

	// State is the connection state reported by the server
	// (e.g. "device", "offline", "unauthorized")
	State string

	// Attrs contains the free-form attributes from "adb devices -l"
	// output. Common keys: "model", "product", "device", "transport_id".
	Attrs map[string]string
}

// Attr retrieves an attribute by key, or "?" when the device did not
// report it (unauthorized devices report none)
func (d Device) Attr(key string) string {
	if v, ok := d.Attrs[key]; ok && v != "" {
		return v
	}
	return "?"
}

// Model returns the reported hardware model
func (d Device) Model() string { return d.Attr("model") }

// Product returns the reported product name
func (d Device) Product() string { return d.Attr("product") }

// String returns a human-readable one-line description
func (d Device) String() string {
	return fmt.Sprintf("%s (%s, model=%s, product=%s)", d.Serial, d.State, d.Model(), d.Product())
}

// parseDeviceList parses the payload of a "host:devices-l" response.
// Each line is "<serial> <state> key:value key:value ...", whitespace
// separated with a padded serial column. Blank lines are skipped;
// malformed lines are dropped rather than failing the whole listing.
func parseDeviceList(payload string) []Device {
	var devices []Device
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		dev := Device{
			Serial: fields[0],
			State:  fields[1],
			Attrs:  make(map[string]string),
		}
		for _, field := range fields[2:] {
			key, value, ok := strings.Cut(field, ":")
			if !ok {
				continue
			}
			dev.Attrs[key] = value
		}
		devices = append(devices, dev)
	}
	return devices
}
