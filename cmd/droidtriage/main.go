// Droidtriage is a compromise-indicator scanner for Android devices
// reachable over ADB.
//
// It lists devices known to the local ADB server, scans a chosen device
// against an indicator database of known stalkerware and spyware, and
// streams findings as they are discovered. The indicator database is
// fetched with 'droidtriage update-iocs' and matched on package ids,
// accessibility services, and device-admin registrations.
//
// Running without arguments launches the interactive scanner. See
// 'droidtriage --help' for the non-interactive commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/droidtriage/internal/logging"
	"github.com/muurk/droidtriage/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "droidtriage",
	Short: "Android compromise-indicator scanner",
	Long: `Scan Android devices for indicators of stalkerware and spyware.

Devices are reached through the local ADB server (adb start-server).
The scanner checks installed packages, enabled accessibility services,
active device admins, and suspicious system configuration against a
downloadable indicator database.

If no command is specified, the interactive scanner will launch.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("droidtriage %s\n", version.Full())
	},
}
