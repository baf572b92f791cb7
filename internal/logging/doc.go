// Package logging provides structured logging via zap.
//
// Logging is silent by default: the interactive scanner draws to the
// alternate screen and any stray log line would corrupt the display. Set
// the DROIDTRIAGE_LOG_LEVEL environment variable to "debug", "info",
// "warn", or "error" to enable diagnostic output on stderr.
//
// Errors that happen inside a running scan are only visible through this
// package; the UI reduces them to a plain "scan ended" signal.
package logging
