package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/droidtriage/internal/adb"
	"github.com/muurk/droidtriage/internal/iocs"
	"github.com/muurk/droidtriage/internal/scan"
	"github.com/muurk/droidtriage/internal/tui"
)

// Command flags
var (
	adbServerAddr string
	scanSerial    string
	skipApps      bool
	rulesPath     string
	rulesURL      string
	withWireless  bool
	mdnsTimeout   int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&adbServerAddr, "adb-server", adb.DefaultAddr, "Address of the adb server")
	rootCmd.PersistentFlags().BoolVar(&skipApps, "skip-apps", false, "Skip the installed-package probe")

	rootCmd.AddCommand(listDevicesCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(updateIocsCmd)
}

// runInteractive launches the TUI; default when no subcommand is given
func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	host := adb.NewHost(adbServerAddr)
	return tui.Run(ctx, host, scan.Settings{SkipApps: skipApps})
}

var listDevicesCmd = &cobra.Command{
	Use:   "list-devices",
	Short: "List devices known to the adb server",
	Long: `List every device the adb server currently knows about, including
offline and unauthorized ones.

With --wireless, additionally browse the local network for Android
wireless-debugging endpoints advertised over mDNS. Endpoints found this
way are not attached yet; use 'droidtriage connect <ip:port>' to attach
one to the adb server.`,
	Example: `  # List USB and already-attached devices
  droidtriage list-devices

  # Also browse for wireless debugging endpoints
  droidtriage list-devices --wireless --mdns-timeout 10`,
	RunE: runListDevices,
}

func init() {
	listDevicesCmd.Flags().BoolVar(&withWireless, "wireless", false, "Also browse mDNS for wireless debugging endpoints")
	listDevicesCmd.Flags().IntVar(&mdnsTimeout, "mdns-timeout", 5, "mDNS browse timeout in seconds")
}

func runListDevices(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	host := adb.NewHost(adbServerAddr)
	devices, err := host.Devices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No devices attached.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Plug the device in and confirm the USB-debugging prompt")
		fmt.Println("  - Check 'adb devices' sees the device")
		fmt.Println("  - For wireless debugging, try --wireless")
	} else {
		fmt.Printf("Found %d device(s):\n\n", len(devices))
		for i, device := range devices {
			fmt.Printf("%d. %s\n", i+1, device.Serial)
			fmt.Printf("   State:   %s\n", device.State)
			fmt.Printf("   Model:   %s\n", device.Model())
			fmt.Printf("   Product: %s\n", device.Product())
			fmt.Println()
		}
	}

	if !withWireless {
		return nil
	}

	fmt.Printf("Browsing for wireless debugging endpoints (%ds)...\n\n", mdnsTimeout)
	endpoints, err := adb.DiscoverWireless(ctx, time.Duration(mdnsTimeout)*time.Second)
	if err != nil {
		return fmt.Errorf("wireless browse failed: %w", err)
	}
	if len(endpoints) == 0 {
		fmt.Println("No wireless debugging endpoints found.")
		return nil
	}
	for _, ep := range endpoints {
		fmt.Printf("  %s at %s\n", ep.Instance, ep.Addr())
	}
	fmt.Println("\nUse 'droidtriage connect <ip:port>' to attach an endpoint.")
	return nil
}

var connectCmd = &cobra.Command{
	Use:   "connect <ip:port>",
	Short: "Attach a wireless debugging endpoint to the adb server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		host := adb.NewHost(adbServerAddr)
		response, err := host.Connect(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(response)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan one device and print findings as they are discovered",
	Long: `Run a non-interactive scan against a single device.

The device is chosen with --serial; when omitted and exactly one device
is attached, that device is scanned. Findings stream to stdout in
detection order. Interrupting the scan (Ctrl+C) aborts it abruptly.`,
	Example: `  # Scan the only attached device
  droidtriage scan

  # Scan a specific device, skipping the (slow) package probe
  droidtriage scan --serial emulator-5554 --skip-apps

  # Use an alternate rule file
  droidtriage scan --rules ./indicators.yaml`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanSerial, "serial", "", "Serial of the device to scan")
	scanCmd.Flags().StringVar(&rulesPath, "rules", "", "Indicator rule file (default: installed database)")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	host := adb.NewHost(adbServerAddr)

	serial := scanSerial
	if serial == "" {
		devices, err := host.Devices(ctx)
		if err != nil {
			return fmt.Errorf("failed to list devices: %w", err)
		}
		switch len(devices) {
		case 0:
			return fmt.Errorf("no devices attached")
		case 1:
			serial = devices[0].Serial
		default:
			return fmt.Errorf("%d devices attached, choose one with --serial", len(devices))
		}
	}

	conn, err := host.Transport(ctx, serial)
	if err != nil {
		return fmt.Errorf("failed to access device: %w", err)
	}

	path := rulesPath
	if path == "" {
		path, err = iocs.Locate()
		if err != nil {
			return err
		}
	}
	rules, rulesHash, err := iocs.LoadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("Scanning %s against %d indicator entries (rules sha256 %.12s...)\n\n", serial, rules.Len(), rulesHash)

	printer := &printNotifier{width: terminalWidth()}
	err = scan.Run(ctx, conn, rules, &scan.Settings{SkipApps: skipApps}, printer)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nScan aborted.")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("\nScan finished: %d finding(s).\n", printer.count)
	return nil
}

// printNotifier renders findings to stdout in arrival order
type printNotifier struct {
	width int
	count int
}

var severityStyle = map[string]lipgloss.Style{
	"high":   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true),
	"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
	"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F")),
	"info":   lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
}

func (p *printNotifier) Suspicion(ctx context.Context, s iocs.Suspicion) error {
	p.count++
	level := s.Level.String()
	style, ok := severityStyle[level]
	if !ok {
		style = severityStyle["info"]
	}

	line := fmt.Sprintf("%s %s", style.Render(fmt.Sprintf("%-6s", level)), s.Description)
	if p.width > 0 && lipgloss.Width(line) > p.width {
		line = lipgloss.NewStyle().Width(p.width).Render(line)
	}
	fmt.Println(line)
	return nil
}

// terminalWidth reports the stdout width, or 0 when not a terminal
func terminalWidth() int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}

var updateIocsCmd = &cobra.Command{
	Use:   "update-iocs",
	Short: "Download or update the indicator database",
	Long: `Fetch the indicator database into the configuration directory.

The download is validated before it replaces an installed database, and
the write is atomic, so a failed update never corrupts working rules.`,
	Example: `  # Fetch from the default location
  droidtriage update-iocs

  # Fetch from a mirror
  droidtriage update-iocs --url https://example.org/indicators.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		path, err := iocs.RulesPath()
		if err != nil {
			return err
		}
		hash, err := iocs.Fetch(ctx, rulesURL, path)
		if err != nil {
			return err
		}
		fmt.Printf("Indicator database updated: %s\n", path)
		fmt.Printf("sha256: %s\n", hash)
		return nil
	},
}

func init() {
	updateIocsCmd.Flags().StringVar(&rulesURL, "url", iocs.DefaultRulesURL, "Download URL for the indicator database")
}
