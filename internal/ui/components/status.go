package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/storefront-console/storefront/internal/interfaces"
)

// Status kinds understood by RenderStatus.
const (
	StatusInfo    = "info"
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
	StatusPending = "pending"
)

var statusIcons = map[string]string{
	StatusPending: "…",
	StatusSuccess: "✓",
	StatusError:   "✗",
	StatusWarning: "!",
	StatusInfo:    "·",
}

// RenderStatus formats a status message with an icon in the theme colour
// for its kind.
func RenderStatus(theme interfaces.Theme, status, message string) string {
	icon, ok := statusIcons[status]
	if !ok {
		icon = "·"
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(statusColor(theme, status))).
		Render(fmt.Sprintf("%s %s", icon, message))
}

func statusColor(theme interfaces.Theme, status string) string {
	switch status {
	case StatusSuccess:
		return theme.Success
	case StatusError:
		return theme.Error
	case StatusWarning, StatusPending:
		return theme.Warning
	default:
		return theme.Info
	}
}

// Title renders a screen title in the accent colour.
func Title(theme interfaces.Theme, text string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Accent)).
		MarginBottom(1).
		Render(text)
}

// Help renders a dim key legend such as "↑/↓ move • enter open".
func Help(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, pairs[i]+" "+pairs[i+1])
	}
	return errorHintStyle.MarginTop(1).Render(strings.Join(parts, " • "))
}

// Price formats a store price.
func Price(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}
