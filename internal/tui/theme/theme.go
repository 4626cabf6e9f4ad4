// Package theme holds the lipgloss styles used by workon's terminal output.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	// Amber is the accent for project names and headers.
	Amber = "#FFAA00"
	// Slate is the muted neutral for paths and secondary text.
	Slate = "#6C7086"
	// Sky is the informational blue.
	Sky = "#89B4FA"
	// Leaf is the success green.
	Leaf = "#A6E3A1"
	// Ember is the failure red.
	Ember = "#F38BA8"
	// Sand is the caution yellow.
	Sand = "#F9E2AF"
)

const (
	// IconDone marks a task that exited zero or a passing check.
	IconDone = "✓"
	// IconFailed marks an aborted task or a failing check.
	IconFailed = "✗"
	// IconAlert marks a task that exited non-zero.
	IconAlert = "⚠"
	// IconRunning marks a task whose process is running.
	IconRunning = "●"
	// IconDispatched marks a task handed to its goroutine.
	IconDispatched = "▸"
)

// Profile-aware terminal colors for the palette above.
var (
	AmberColor = profileColor(Amber, "214", "11")
	SlateColor = profileColor(Slate, "60", "8")
	SkyColor   = profileColor(Sky, "111", "12")
	LeafColor  = profileColor(Leaf, "151", "10")
	EmberColor = profileColor(Ember, "211", "9")
	SandColor  = profileColor(Sand, "223", "11")
)

var (
	// HeaderStyle marks project names and section headers.
	HeaderStyle = lipgloss.NewStyle().Foreground(AmberColor).Bold(true)
	// SuccessStyle marks clean exits and passing checks.
	SuccessStyle = lipgloss.NewStyle().Foreground(LeafColor).Bold(true)
	// ErrorStyle marks aborted tasks and failing checks.
	ErrorStyle = lipgloss.NewStyle().Foreground(EmberColor).Bold(true)
	// WarningStyle marks non-zero exits.
	WarningStyle = lipgloss.NewStyle().Foreground(SandColor).Bold(true)
	// InfoStyle marks progress lines.
	InfoStyle = lipgloss.NewStyle().Foreground(SkyColor)
	// MutedStyle marks paths, commands and durations.
	MutedStyle = lipgloss.NewStyle().Foreground(SlateColor)
)

// ReportBorder frames the final launch report.
var ReportBorder = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(SlateColor).
	Padding(0, 1)

var colorProfileFn = lipgloss.ColorProfile

func profileColor(hex string, ansi256 string, ansi string) lipgloss.TerminalColor {
	switch colorProfileFn() {
	case termenv.ANSI256, termenv.ANSI:
		complete := lipgloss.CompleteColor{TrueColor: hex, ANSI256: ansi256, ANSI: ansi}
		return lipgloss.CompleteAdaptiveColor{Light: complete, Dark: complete}
	default:
		return lipgloss.AdaptiveColor{Light: hex, Dark: hex}
	}
}

// DisableColor renders every style as plain text, for piped output.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
