package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyEsc() tea.KeyMsg   { return tea.KeyMsg{Type: tea.KeyEsc} }
func keyCtrlC() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyCtrlC} }
func keyEnter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }
func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name        string
		scanning    bool
		reportShown bool
		msg         tea.KeyMsg
		want        Action
	}{
		// The Back binding is state-sensitive
		{"esc while scanning cancels", true, true, keyEsc(), ActionCancelScan},
		{"esc with report dismisses", false, true, keyEsc(), ActionDismissReport},
		{"esc on device list quits", false, false, keyEsc(), ActionQuit},
		{"ctrl+c while scanning cancels", true, true, keyCtrlC(), ActionCancelScan},
		{"ctrl+c on device list quits", false, false, keyCtrlC(), ActionQuit},
		{"q with report dismisses", false, true, keyRune('q'), ActionDismissReport},
		{"q on device list quits", false, false, keyRune('q'), ActionQuit},

		// Shift+Q overrides everything
		{"Q quits while scanning", true, true, keyRune('Q'), ActionForceQuit},
		{"Q quits with report", false, true, keyRune('Q'), ActionForceQuit},
		{"Q quits on device list", false, false, keyRune('Q'), ActionForceQuit},

		// Device-list-only bindings
		{"enter on device list starts", false, false, keyEnter(), ActionStartScan},
		{"enter with report ignored", false, true, keyEnter(), ActionNone},
		{"enter while scanning ignored", true, true, keyEnter(), ActionNone},
		{"up on device list", false, false, tea.KeyMsg{Type: tea.KeyUp}, ActionCursorUp},
		{"up with report ignored", false, true, tea.KeyMsg{Type: tea.KeyUp}, ActionNone},
		{"down on device list", false, false, tea.KeyMsg{Type: tea.KeyDown}, ActionCursorDown},
		{"down with report ignored", false, true, tea.KeyMsg{Type: tea.KeyDown}, ActionNone},

		// Global bindings work in every state
		{"ctrl+r on device list", false, false, tea.KeyMsg{Type: tea.KeyCtrlR}, ActionRefresh},
		{"ctrl+r while scanning", true, true, tea.KeyMsg{Type: tea.KeyCtrlR}, ActionRefresh},
		{"ctrl+l with report", false, true, tea.KeyMsg{Type: tea.KeyCtrlL}, ActionRepaint},

		// Everything else is ignored
		{"unbound rune", false, false, keyRune('x'), ActionNone},
		{"unbound rune while scanning", true, true, keyRune('x'), ActionNone},
	}

	keys := defaultKeyMap()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interpret(keys, tt.scanning, tt.reportShown, tt.msg)
			if got != tt.want {
				t.Errorf("interpret(scanning=%v, report=%v, %q) = %d, want %d",
					tt.scanning, tt.reportShown, tt.msg.String(), got, tt.want)
			}
		})
	}
}
