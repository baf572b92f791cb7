// Package adb is a client for the ADB server's smart-socket protocol.
//
// The ADB server (started by "adb start-server") listens on localhost:5037
// and multiplexes access to every connected Android device. This package
// speaks the server's wire protocol directly rather than shelling out to
// the adb binary:
//
//  1. Requests are ASCII payloads prefixed with a 4-digit hex length,
//     e.g. "0012host:devices-l".
//  2. The server answers with a 4-byte status word, "OKAY" or "FAIL".
//  3. FAIL is followed by a length-prefixed error message; host queries
//     answer OKAY followed by a length-prefixed payload.
//  4. "host:transport:<serial>" pins the connection to one device, after
//     which "shell:<cmd>" streams command output until EOF.
//
// # Device discovery
//
// Host.Devices lists everything the server knows about, one Device
// snapshot per entry with the free-form attributes adb reports
// (model, product, device, transport_id). Wireless-debugging endpoints
// that have not yet been paired to the server can additionally be found
// via mDNS (DiscoverWireless) and attached with Host.Connect.
//
// # Failure model
//
// All failures are reported as *DiscoveryError with a Kind that separates
// "adb server not running" from protocol violations, unknown serials, and
// failed commands. Callers use errors.As or the Is* helpers.
package adb
