package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/droidtriage/internal/iocs"
)

// busCapacity bounds the session message bus. Small on purpose: a scan
// that finds faster than the loop drains blocks on send instead of
// growing memory.
const busCapacity = 5

// Message is the closed sum carried on the session bus. Both kinds travel
// on one channel so the event loop observes a single arrival order.
type Message interface {
	isMessage()
}

// ScanEnded signals that the scan task finished - cleanly, with an
// internal error, or by cancellation. Exactly one is emitted per session.
type ScanEnded struct{}

func (ScanEnded) isMessage() {}

// Finding carries one suspicion from the running scan
type Finding struct {
	Suspicion iocs.Suspicion
}

func (Finding) isMessage() {}

// busMsg adapts a bus Message into the Bubble Tea queue
type busMsg struct {
	message Message
}

// busClosedMsg reports that the bus was closed; the loop terminates
type busClosedMsg struct{}

// waitForMessage receives the next bus message as a command. The Update
// handler re-arms it after every receipt, which is what interleaves bus
// messages with keystrokes one event per iteration.
func waitForMessage(events <-chan Message) tea.Cmd {
	return func() tea.Msg {
		message, ok := <-events
		if !ok {
			return busClosedMsg{}
		}
		return busMsg{message: message}
	}
}
