// FILENAME: internal/ui/styles.go
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/xkilldash9x/owasp-driver/internal/config"
)

var (
	// -- Components --

	// Panels
	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(config.ColorSub).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Foreground(config.ColorFocus).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(config.ColorSub).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))

	// Flags
	anomalyStyle = lipgloss.NewStyle().Foreground(config.ColorErr).Bold(true)
	novelStyle   = lipgloss.NewStyle().Foreground(config.ColorAccent)
)

// statusColor returns a style based on standard HTTP status code semantics.
func statusColor(code int) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch {
	case code >= 200 && code < 300:
		return s.Foreground(config.ColorOk)
	case code >= 300 && code < 400:
		return s.Foreground(config.ColorWarn)
	case code >= 400:
		return s.Foreground(config.ColorErr)
	default:
		return s.Foreground(config.ColorSub)
	}
}
