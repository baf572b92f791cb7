package iocs

import "fmt"

// Level grades how strongly a finding indicates compromise
type Level int

const (
	// LevelInfo is context worth recording but not alarming on its own
	LevelInfo Level = iota
	// LevelLow is a weak indicator (e.g. sideloading enabled)
	LevelLow
	// LevelMedium is a configuration commonly abused by stalkerware
	LevelMedium
	// LevelHigh is a direct match against a known indicator
	LevelHigh
)

// String returns the lowercase level name
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return fmt.Sprintf("level(%d)", l)
	}
}

// Suspicion is one compromise-indicator finding. It is an immutable value:
// produced by the scan engine, appended to the report, rendered, never
// interpreted downstream.
type Suspicion struct {
	// Level grades the finding
	Level Level

	// Description is the human-readable finding text
	Description string
}

// String returns the rendered one-line form used by list views
func (s Suspicion) String() string {
	return fmt.Sprintf("%-6s %s", s.Level, s.Description)
}

// Rule is one indicator entry from the rule file
type Rule struct {
	// Name is the threat name (e.g. "FlexiSpy")
	Name string `yaml:"name"`

	// Type classifies the entry (e.g. "stalkerware", "spyware")
	Type string `yaml:"type"`

	// Packages lists Android package ids the threat installs as
	Packages []string `yaml:"packages"`

	// Services lists accessibility/admin service ids the threat registers
	Services []string `yaml:"services"`
}
