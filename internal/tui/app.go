package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/droidtriage/internal/adb"
	"github.com/muurk/droidtriage/internal/iocs"
	"github.com/muurk/droidtriage/internal/logging"
	"github.com/muurk/droidtriage/internal/scan"
)

// Model is the application state: the device directory, the report, and
// the active session. Directory and report are owned exclusively by the
// event loop and mutated only inside Update; the scan task reaches them
// only through the bus.
type Model struct {
	host     *adb.Host
	keys     keyMap
	settings scan.Settings

	// events is the session bus. Both halves live on the model: the
	// consumer end feeds waitForMessage, the producer end is handed to
	// each session.
	events chan Message

	// Device directory: ordered listing plus selection cursor. The cursor
	// is always a valid index, or 0 when the listing is empty.
	devices []adb.Device
	cursor  int

	// Report: present iff a scan has been started since the last
	// dismissal. Presence selects the findings view.
	report     []iocs.Suspicion
	reportOpen bool

	// session is the active scan handle, nil when idle
	session *Session

	spinner spinner.Model
	width   int
	height  int

	// Collaborator seams; tests substitute these.
	startScan   func(device adb.Device, events chan<- Message) (*Session, error)
	listDevices func(ctx context.Context) ([]adb.Device, error)
}

// NewModel creates the application model around an initial device
// listing. The initial listing is performed by the caller so a dead adb
// server is fatal before the terminal is taken over.
func NewModel(host *adb.Host, devices []adb.Device, settings scan.Settings) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := Model{
		host:     host,
		keys:     defaultKeyMap(),
		settings: settings,
		events:   make(chan Message, busCapacity),
		devices:  devices,
		spinner:  s,
	}
	m.startScan = func(device adb.Device, events chan<- Message) (*Session, error) {
		return StartSession(host, device, &m.settings, events)
	}
	m.listDevices = host.Devices
	return m
}

// scanning reports whether a session is active
func (m Model) scanning() bool {
	return m.session != nil
}

// Init arms the bus consumer
func (m Model) Init() tea.Cmd {
	return waitForMessage(m.events)
}

// Update processes exactly one event per iteration: a keystroke or a bus
// message, whichever the program queue delivers first.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case busMsg:
		return m.handleBus(msg.message)

	case busClosedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		if !m.scanning() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey applies the interpreted action to the state machine
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch interpret(m.keys, m.scanning(), m.reportOpen, msg) {
	case ActionQuit, ActionForceQuit:
		return m, tea.Quit

	case ActionCancelScan:
		// The handle is dropped as soon as cancellation is requested; the
		// session still delivers its single ScanEnded, which then finds
		// nothing left to clear.
		m.session.Cancel()
		m.session = nil

	case ActionDismissReport:
		m.report = nil
		m.reportOpen = false

	case ActionStartScan:
		return m.startSelected()

	case ActionCursorUp:
		m.keyUp()

	case ActionCursorDown:
		m.keyDown()

	case ActionRefresh:
		m.refreshDevices()

	case ActionRepaint:
		return m, tea.ClearScreen
	}
	return m, nil
}

// handleBus applies one bus message
func (m Model) handleBus(message Message) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case ScanEnded:
		m.session = nil
	case Finding:
		if m.reportOpen {
			m.report = append(m.report, message.Suspicion)
		}
	}
	return m, waitForMessage(m.events)
}

// startSelected starts a scan session on the device under the cursor. The
// report is created empty the instant the session starts; on a start
// failure nothing is created and the operator stays in the device list.
func (m Model) startSelected() (tea.Model, tea.Cmd) {
	device, ok := m.selected()
	if !ok {
		return m, nil
	}

	session, err := m.startScan(device, m.events)
	if err != nil {
		logging.Error("Failed to start scan",
			zap.String("serial", device.Serial),
			zap.Error(err),
		)
		return m, nil
	}

	m.session = session
	m.report = []iocs.Suspicion{}
	m.reportOpen = true
	return m, m.spinner.Tick
}

// selected returns the device under the cursor, or false when the
// directory is empty
func (m Model) selected() (adb.Device, bool) {
	if len(m.devices) == 0 {
		return adb.Device{}, false
	}
	return m.devices[m.cursor], true
}

// keyUp moves the cursor up, saturating at the first entry
func (m *Model) keyUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

// keyDown moves the cursor down, saturating at the last entry
func (m *Model) keyDown() {
	if m.cursor+1 < len(m.devices) {
		m.cursor++
	}
}

// refreshDevices replaces the directory wholesale and re-clamps the
// cursor. Failures leave the previous listing in place; another Ctrl+R
// retries.
func (m *Model) refreshDevices() {
	devices, err := m.listDevices(context.Background())
	if err != nil {
		logging.Warn("Failed to refresh devices", zap.Error(err))
		return
	}
	m.devices = devices
	m.clampCursor()
}

// clampCursor restores the cursor invariant after a refresh
func (m *Model) clampCursor() {
	if m.cursor < len(m.devices) {
		return
	}
	if len(m.devices) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = len(m.devices) - 1
}
