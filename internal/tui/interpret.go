package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is what a keystroke means given the current application state
type Action int

const (
	// ActionNone ignores the input
	ActionNone Action = iota
	// ActionQuit terminates the loop
	ActionQuit
	// ActionForceQuit terminates the loop regardless of state
	ActionForceQuit
	// ActionCancelScan cancels the active session
	ActionCancelScan
	// ActionDismissReport discards the report and returns to the device list
	ActionDismissReport
	// ActionStartScan starts a scan on the selected device
	ActionStartScan
	// ActionCursorUp moves the selection cursor up
	ActionCursorUp
	// ActionCursorDown moves the selection cursor down
	ActionCursorDown
	// ActionRefresh re-queries the device directory
	ActionRefresh
	// ActionRepaint forces a full screen repaint
	ActionRepaint
)

// keyMap defines the interactive bindings
type keyMap struct {
	Back      key.Binding // cancel scan / dismiss report / quit, by state
	ForceQuit key.Binding
	Start     key.Binding
	Up        key.Binding
	Down      key.Binding
	Refresh   key.Binding
	Repaint   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Back: key.NewBinding(
			key.WithKeys("esc", "ctrl+c", "q"),
			key.WithHelp("esc", "cancel/quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("Q"),
			key.WithHelp("Q", "quit"),
		),
		Start: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "scan"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		Repaint: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "repaint"),
		),
	}
}

// interpret maps a raw key event plus the current state to an action. It
// is pure: no model mutation, unrecognized keys map to ActionNone.
//
// scanning means a session is active; reportShown means a report exists
// (the findings view is on screen). The Back binding is state-sensitive:
// cancel while scanning, dismiss while a report is shown, quit from the
// device list.
func interpret(keys keyMap, scanning bool, reportShown bool, msg tea.KeyMsg) Action {
	switch {
	case key.Matches(msg, keys.ForceQuit):
		return ActionForceQuit

	case key.Matches(msg, keys.Back):
		if scanning {
			return ActionCancelScan
		}
		if reportShown {
			return ActionDismissReport
		}
		return ActionQuit

	case key.Matches(msg, keys.Start):
		if !reportShown {
			return ActionStartScan
		}

	case key.Matches(msg, keys.Up):
		if !reportShown {
			return ActionCursorUp
		}

	case key.Matches(msg, keys.Down):
		if !reportShown {
			return ActionCursorDown
		}

	// Refresh works in any view. It only touches the device directory;
	// the findings view does not change because view selection keys off
	// report presence alone.
	case key.Matches(msg, keys.Refresh):
		return ActionRefresh

	case key.Matches(msg, keys.Repaint):
		return ActionRepaint
	}
	return ActionNone
}
