package tui

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/muurk/droidtriage/internal/adb"
	"github.com/muurk/droidtriage/internal/iocs"
	"github.com/muurk/droidtriage/internal/scan"
)

// fakeAdb is a wire-level stand-in for the adb server: framed requests,
// OKAY/FAIL status words, one shell command per pinned connection.
type fakeAdb struct {
	listener net.Listener
	shell    map[string]string

	// hangCommand, when set, names a shell command whose output never
	// arrives; the stream stays open until the client aborts it
	hangCommand string
}

func startFakeAdb(t *testing.T) *fakeAdb {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	f := &fakeAdb{listener: listener, shell: make(map[string]string)}
	go f.serve()
	t.Cleanup(func() { listener.Close() })
	return f
}

func (f *fakeAdb) serve() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeAdb) handle(conn net.Conn) {
	defer conn.Close()
	for {
		request, err := readWireFrame(conn)
		if err != nil {
			return
		}

		switch {
		case strings.HasPrefix(request, "host:transport:"):
			io.WriteString(conn, "OKAY")

		case f.hangCommand != "" && request == "shell:"+f.hangCommand:
			io.WriteString(conn, "OKAY")
			// Blocks until the client aborts the connection
			io.Copy(io.Discard, conn)
			return

		case strings.HasPrefix(request, "shell:"):
			io.WriteString(conn, "OKAY")
			io.WriteString(conn, f.shell[strings.TrimPrefix(request, "shell:")])
			return

		default:
			reason := "unknown request"
			io.WriteString(conn, "FAIL")
			fmt.Fprintf(conn, "%04x%s", len(reason), reason)
			return
		}
	}
}

func readWireFrame(r io.Reader) (string, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return "", err
	}
	size, err := strconv.ParseUint(string(header), 16, 32)
	if err != nil {
		return "", err
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", err
	}
	return string(payload), nil
}

// installTestRules points the rule repository at a temp directory holding
// one FlexiSpy indicator
func installTestRules(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := iocs.RulesPath()
	if err != nil {
		t.Fatalf("RulesPath() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	rules := "- name: FlexiSpy\n  type: stalkerware\n  packages: [com.flexispy.agent]\n  services: []\n"
	if err := os.WriteFile(path, []byte(rules), 0600); err != nil {
		t.Fatalf("failed to install rules: %v", err)
	}
}

func quietShellOutput() map[string]string {
	return map[string]string{
		"getprop ro.debuggable":                              "0\n",
		"settings get secure install_non_market_apps":        "0\n",
		"settings get secure enabled_accessibility_services": "null\n",
		"dumpsys device_policy":                              "Current Device Policy Manager state:\n",
		"pm list packages":                                   "package:com.android.settings\n",
	}
}

func collectUntilEnded(t *testing.T, events <-chan Message) []Message {
	t.Helper()
	var got []Message
	for {
		select {
		case message := <-events:
			got = append(got, message)
			if _, ok := message.(ScanEnded); ok {
				return got
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("no ScanEnded after 5s; got %v", got)
		}
	}
}

func TestStartSessionDeliversFindingsThenScanEnded(t *testing.T) {
	installTestRules(t)

	server := startFakeAdb(t)
	server.shell = quietShellOutput()
	server.shell["pm list packages"] = "package:com.android.settings\npackage:com.flexispy.agent\n"

	host := adb.NewHost(server.listener.Addr().String())
	events := make(chan Message, busCapacity)

	session, err := StartSession(host, adb.Device{Serial: "emulator-5554", State: "device"}, &scan.Settings{}, events)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if session.ID() == "" {
		t.Error("session has no id")
	}

	got := collectUntilEnded(t, events)

	if len(got) != 2 {
		t.Fatalf("received %d messages, want finding + ended: %v", len(got), got)
	}
	finding, ok := got[0].(Finding)
	if !ok {
		t.Fatalf("first message = %T, want Finding", got[0])
	}
	if finding.Suspicion.Level != iocs.LevelHigh {
		t.Errorf("finding level = %v, want %v", finding.Suspicion.Level, iocs.LevelHigh)
	}
	if !strings.Contains(finding.Suspicion.Description, "com.flexispy.agent") {
		t.Errorf("finding %q does not name the package", finding.Suspicion.Description)
	}

	// Exactly one ScanEnded: nothing else may arrive afterwards
	select {
	case extra := <-events:
		t.Errorf("message after ScanEnded: %v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStartSessionBackpressureLosesNothing(t *testing.T) {
	// Far more findings than the bus holds: the scan must block on the full
	// bus and resume as the consumer drains, losing nothing and preserving
	// emission order.
	const packageCount = 4 * busCapacity

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	rulesPath, err := iocs.RulesPath()
	if err != nil {
		t.Fatalf("RulesPath() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(rulesPath), 0700); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	var rules strings.Builder
	rules.WriteString("- name: SampleWare\n  type: stalkerware\n  packages:\n")
	var listing strings.Builder
	for i := 0; i < packageCount; i++ {
		fmt.Fprintf(&rules, "    - com.sample.agent%02d\n", i)
		fmt.Fprintf(&listing, "package:com.sample.agent%02d\n", i)
	}
	if err := os.WriteFile(rulesPath, []byte(rules.String()), 0600); err != nil {
		t.Fatalf("failed to install rules: %v", err)
	}

	server := startFakeAdb(t)
	server.shell = quietShellOutput()
	server.shell["pm list packages"] = listing.String()

	host := adb.NewHost(server.listener.Addr().String())
	events := make(chan Message, busCapacity)

	_, err = StartSession(host, adb.Device{Serial: "emulator-5554", State: "device"}, &scan.Settings{}, events)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	var findings []Finding
	ended := false
	for !ended {
		select {
		case message := <-events:
			// Drain slower than the scan emits so the bus fills up
			time.Sleep(5 * time.Millisecond)
			switch message := message.(type) {
			case Finding:
				findings = append(findings, message)
			case ScanEnded:
				ended = true
			}
		case <-time.After(10 * time.Second):
			t.Fatalf("scan stalled; received %d findings", len(findings))
		}
	}

	if len(findings) != packageCount {
		t.Fatalf("received %d findings, want %d", len(findings), packageCount)
	}
	for i, finding := range findings {
		wantPkg := fmt.Sprintf("com.sample.agent%02d", i)
		if !strings.Contains(finding.Suspicion.Description, wantPkg) {
			t.Fatalf("finding %d = %q, want emission order (%s)", i, finding.Suspicion.Description, wantPkg)
		}
	}

	// Nothing may trail the single ScanEnded
	select {
	case extra := <-events:
		t.Errorf("message after ScanEnded: %v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStartSessionCancellation(t *testing.T) {
	installTestRules(t)

	server := startFakeAdb(t)
	server.shell = quietShellOutput()
	// The very first probe wedges; only cancellation can end this scan
	server.hangCommand = "getprop ro.debuggable"

	host := adb.NewHost(server.listener.Addr().String())
	events := make(chan Message, busCapacity)

	session, err := StartSession(host, adb.Device{Serial: "emulator-5554", State: "device"}, &scan.Settings{}, events)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	session.Cancel()

	select {
	case message := <-events:
		if _, ok := message.(ScanEnded); !ok {
			t.Fatalf("message after cancel = %T, want ScanEnded", message)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no ScanEnded after cancellation")
	}

	// Cancelling an ended session is a harmless no-op
	session.Cancel()
}

func TestStartSessionTransportFailure(t *testing.T) {
	installTestRules(t)

	// No server behind this address
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	host := adb.NewHost(addr)
	events := make(chan Message, busCapacity)

	session, err := StartSession(host, adb.Device{Serial: "emulator-5554"}, &scan.Settings{}, events)
	if err == nil {
		t.Fatal("StartSession() expected error against dead server")
	}
	if session != nil {
		t.Error("session exists despite start failure")
	}
	var de *adb.DiscoveryError
	if !errors.As(err, &de) {
		t.Errorf("error type = %T, want *adb.DiscoveryError", err)
	}
}

func TestStartSessionMissingRules(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	server := startFakeAdb(t)
	host := adb.NewHost(server.listener.Addr().String())
	events := make(chan Message, busCapacity)

	session, err := StartSession(host, adb.Device{Serial: "emulator-5554"}, &scan.Settings{}, events)
	if err == nil {
		t.Fatal("StartSession() expected error without an indicator database")
	}
	if session != nil {
		t.Error("session exists despite missing rules")
	}
	var le *iocs.RuleLoadError
	if !errors.As(err, &le) {
		t.Errorf("error type = %T, want *iocs.RuleLoadError", err)
	}
}
