// Package scan inspects a connected Android device for compromise
// indicators.
//
// The engine runs a fixed sequence of shell probes over a device
// connection - system properties, enabled accessibility services, active
// device admins, and the installed package list - and matches what it
// finds against the loaded indicator rule set. Every match or suspicious
// configuration is emitted as an iocs.Suspicion through the caller's
// Notifier, in detection order, while the scan is still running.
//
// The engine never touches UI state. Cancellation is observed through the
// context: probes abort mid-read and the remaining sequence is skipped.
package scan
