package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/droidtriage/internal/iocs"
	"github.com/muurk/droidtriage/internal/version"
)

const defaultWidth = 80

// View renders the three-row layout: status line, divider, body. Pure
// over the model state - calling it any number of times yields the same
// output for the same state.
func (m Model) View() string {
	width := m.width
	if width == 0 {
		width = defaultWidth
	}

	var b strings.Builder
	b.WriteString(m.viewStatusLine(width))
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", width)))
	b.WriteString("\n")

	if m.reportOpen {
		b.WriteString(m.viewFindings())
	} else {
		b.WriteString(m.viewDevices())
	}
	return b.String()
}

// viewStatusLine renders the right-aligned top row: activity indicator,
// quit hint, product name and version
func (m Model) viewStatusLine(width int) string {
	indicator := "idle"
	if m.scanning() {
		indicator = m.spinner.View() + "scanning"
	}

	status := fmt.Sprintf("%s - Press %s to exit - droidtriage v%s",
		indicator,
		statusKeyStyle.Render("ESC"),
		version.Version,
	)
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, statusStyle.Render(status))
}

// viewDevices renders the device directory with the selected row marked
func (m Model) viewDevices() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Connected devices"))
	b.WriteString("\n")

	for i, device := range m.devices {
		marker := "   "
		if i == m.cursor {
			marker = markerStyle.Render(" > ")
		}

		row := fmt.Sprintf("%-24s state=%s, model=%s, product=%s",
			device.Serial,
			device.State,
			device.Model(),
			device.Product(),
		)
		if i == m.cursor {
			row = selectedRowStyle.Render(row)
		}

		b.WriteString(marker)
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

// viewFindings renders the report, one finding per row in arrival order
func (m Model) viewFindings() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Findings"))
	b.WriteString("\n")

	for _, sus := range m.report {
		b.WriteString("   ")
		b.WriteString(levelStyle(sus.Level).Render(sus.Level.String()))
		b.WriteString(" ")
		b.WriteString(sus.Description)
		b.WriteString("\n")
	}
	return b.String()
}

// levelStyle selects the severity color for a finding level
func levelStyle(level iocs.Level) lipgloss.Style {
	switch level {
	case iocs.LevelHigh:
		return highLevelStyle
	case iocs.LevelMedium:
		return mediumLevelStyle
	case iocs.LevelLow:
		return lowLevelStyle
	default:
		return infoLevelStyle
	}
}
