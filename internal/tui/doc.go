// Package tui implements the interactive scanner surface.
//
// The application is a Bubble Tea program whose model owns three pieces
// of state: the device directory (last listing plus a selection cursor),
// the report (findings of the current scan attempt, present iff a scan
// has been started since the last dismissal), and at most one active scan
// session with its cancellation handle.
//
// # Event flow
//
// Keystrokes and scan messages converge on the single program queue:
// a re-arming command receives from the bounded session bus, so each
// Update processes exactly one event - whichever source resolved first.
// The bus carries a closed sum (Finding or ScanEnded) on one channel,
// which preserves a single global arrival order and gives a fast scan
// natural backpressure against a busy UI.
//
// A session's goroutine races scan completion against its cancellation
// context and always emits exactly one ScanEnded, so the session handle
// is always eventually cleared. Cancellation is abrupt: the losing scan
// future is abandoned and its device connection torn down, not drained.
//
// View selection keys off report presence alone: the device list is shown
// until a scan starts, the findings list from then until the report is
// dismissed.
package tui
