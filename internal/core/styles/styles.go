// Package styles provides shared lipgloss styles for console output.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	Primary = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true)
	Muted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))

	banner = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7aa2f7")).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#3b4261"))
)

// Banner renders a section heading with an underline rule.
func Banner(format string, args ...any) string {
	return banner.Render(fmt.Sprintf(format, args...))
}

// Okf renders a success-colored status line.
func Okf(format string, args ...any) string {
	return Success.Render("✓ ") + fmt.Sprintf(format, args...)
}

// Warnf renders a warning-colored status line.
func Warnf(format string, args ...any) string {
	return Warning.Render("! ") + fmt.Sprintf(format, args...)
}

// Errf renders an error-colored status line.
func Errf(format string, args ...any) string {
	return Error.Render("✗ ") + fmt.Sprintf(format, args...)
}
