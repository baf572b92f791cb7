package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	selectionColor = lipgloss.Color("#3B3B3B") // Dark grey row highlight
	markerColor    = lipgloss.Color("#FF0000") // Red selection marker
	accentColor    = lipgloss.Color("#43BF6D") // Green titles
	subtleColor    = lipgloss.Color("#626262") // Grey dividers and hints
	highColor      = lipgloss.Color("#FF5F5F")
	mediumColor    = lipgloss.Color("#FFA500")
	lowColor       = lipgloss.Color("#FFD75F")
)

var (
	// Status line (top row)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	statusKeyStyle = lipgloss.NewStyle().
			Bold(true)

	// Divider between status line and body
	dividerStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	// Section title above the body list
	titleStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	// Selection marker and highlighted device row
	markerStyle = lipgloss.NewStyle().
			Foreground(markerColor).
			Bold(true)

	selectedRowStyle = lipgloss.NewStyle().
				Background(selectionColor)

	// Spinner shown while a scan is running
	spinnerStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	// Finding severity colors
	highLevelStyle   = lipgloss.NewStyle().Foreground(highColor).Bold(true)
	mediumLevelStyle = lipgloss.NewStyle().Foreground(mediumColor)
	lowLevelStyle    = lipgloss.NewStyle().Foreground(lowColor)
	infoLevelStyle   = lipgloss.NewStyle().Foreground(subtleColor)
)
