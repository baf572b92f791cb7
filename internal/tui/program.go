package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/droidtriage/internal/adb"
	"github.com/muurk/droidtriage/internal/logging"
	"github.com/muurk/droidtriage/internal/scan"
)

// Run performs the initial device listing and drives the interactive
// program until the operator quits.
//
// The initial listing happens before the terminal is taken over, so a
// dead adb server fails loudly on a normal screen. Bubble Tea owns raw
// mode and the alternate screen from then on and restores both on every
// exit path, including panics.
func Run(ctx context.Context, host *adb.Host, settings scan.Settings) error {
	devices, err := host.Devices(ctx)
	if err != nil {
		// Full detail to the log, a short actionable message to the operator
		logging.Error("Initial device listing failed", zap.Error(err))
		return errors.New(adb.GetShortErrorMessage(err))
	}

	model := NewModel(host, devices, settings)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}
