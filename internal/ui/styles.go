// Package ui renders jellyrename's terminal output: plan previews,
// summaries, and prompts. Styling degrades to plain text when stdout is not
// a terminal.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	isTerminal   = isatty.IsTerminal(os.Stdout.Fd())
	colorEnabled = true

	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	warningStyle lipgloss.Style
	dimStyle     lipgloss.Style
	actionStyle  lipgloss.Style
	pathStyle    lipgloss.Style
)

func init() {
	initStyles()
}

func initStyles() {
	if !IsTerminal() {
		successStyle = lipgloss.NewStyle()
		errorStyle = lipgloss.NewStyle()
		warningStyle = lipgloss.NewStyle()
		dimStyle = lipgloss.NewStyle()
		actionStyle = lipgloss.NewStyle()
		pathStyle = lipgloss.NewStyle()
		return
	}

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
}

// DisableColors disables all color output
func DisableColors() {
	colorEnabled = false
	initStyles()
}

// IsTerminal checks if stdout is a terminal with colors enabled
func IsTerminal() bool {
	return isTerminal && colorEnabled
}

// Success renders success text
func Success(text string) string { return successStyle.Render(text) }

// Error renders error text
func Error(text string) string { return errorStyle.Render(text) }

// Warning renders warning text
func Warning(text string) string { return warningStyle.Render(text) }

// Dim renders de-emphasized text
func Dim(text string) string { return dimStyle.Render(text) }

// Action renders an action verb
func Action(text string) string { return actionStyle.Render(text) }

// Path renders a filesystem path
func Path(text string) string { return pathStyle.Render(text) }
