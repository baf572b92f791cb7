package tui

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/droidtriage/internal/adb"
	"github.com/muurk/droidtriage/internal/iocs"
	"github.com/muurk/droidtriage/internal/logging"
	"github.com/muurk/droidtriage/internal/scan"
)

// Session is the handle for one active background scan: its identity for
// logging plus the one-shot cancellation sender. At most one Session is
// active at a time; the input interpreter makes a second start unreachable
// while a report exists.
type Session struct {
	id     uuid.UUID
	cancel context.CancelFunc
}

// ID returns the session id used in diagnostics
func (s *Session) ID() string {
	return s.id.String()
}

// Cancel fires the one-shot cancellation signal. Idempotent and
// best-effort: cancelling an already-ended session is a no-op.
func (s *Session) Cancel() {
	logging.Debug("Cancelling scan session", zap.String("scan_id", s.ID()))
	s.cancel()
}

// StartSession resolves the device into a live connection, loads the
// indicator rules, and spawns the scan task. Resolution and rule loading
// happen before anything is spawned, so their typed errors
// (*adb.DiscoveryError, *iocs.RuleLoadError) surface synchronously and no
// session exists on failure.
//
// The spawned task forwards every finding onto the bus and always emits
// exactly one ScanEnded: on completion, on internal error, and on
// cancellation. Cancellation is a race, not a checkpoint - the scan
// future is abandoned where it stands and its device connection aborted.
func StartSession(host *adb.Host, device adb.Device, settings *scan.Settings, events chan<- Message) (*Session, error) {
	ctx, cancel := context.WithCancel(context.Background())

	conn, err := host.Transport(ctx, device.Serial)
	if err != nil {
		cancel()
		return nil, err
	}

	rulesPath, err := iocs.Locate()
	if err != nil {
		cancel()
		return nil, err
	}
	rules, rulesHash, err := iocs.LoadFile(rulesPath)
	if err != nil {
		cancel()
		return nil, err
	}

	session := &Session{id: uuid.New(), cancel: cancel}
	logging.LogScanStarted(session.ID(), device.Serial, rules.Len(), rulesHash)

	go func() {
		defer cancel()

		scanDone := make(chan error, 1)
		go func() {
			scanDone <- scan.Run(ctx, conn, rules, settings, &busNotifier{
				scanID: session.ID(),
				events: events,
			})
		}()

		select {
		case <-ctx.Done():
			logging.Debug("Scan has been cancelled", zap.String("scan_id", session.ID()))
		case err := <-scanDone:
			// Internal scan errors are reduced to the same ended signal
			// as a clean finish; the log is the only place they show.
			logging.LogScanEnded(session.ID(), err)
		}
		events <- ScanEnded{}
	}()

	return session, nil
}

// busNotifier forwards findings from the scan task onto the bounded bus.
// A full bus blocks the scan (backpressure) until the loop drains it; the
// send aborts when the session is cancelled so an abandoned scan never
// wedges on a dead bus.
type busNotifier struct {
	scanID string
	events chan<- Message
}

func (n *busNotifier) Suspicion(ctx context.Context, s iocs.Suspicion) error {
	logging.LogSuspicion(n.scanID, s.Level.String(), s.Description)
	select {
	case n.events <- Finding{Suspicion: s}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
