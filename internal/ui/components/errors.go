// Package components provides shared interface elements: the error pane
// shown under a failed operation and the status line.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/interfaces"
)

var (
	errorCategoryStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAB387")).
				Italic(true)

	errorHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))
)

// RenderErrorPane renders the classified message, its category and one hint
// per recovery action. It returns "" for a nil error.
func RenderErrorPane(ce *apperrors.ClassifiedError, theme interfaces.Theme, width int) string {
	if ce == nil {
		return ""
	}

	errColor := lipgloss.Color(theme.Error)
	header := lipgloss.NewStyle().Bold(true).Foreground(errColor)

	var builder strings.Builder
	builder.WriteString(header.Render("✗ " + ce.Message))
	builder.WriteRune('\n')
	builder.WriteString(errorCategoryStyle.Render("  " + string(ce.Category)))

	if hints := RecoveryHints(apperrors.RecoveryActions(ce)); hints != "" {
		builder.WriteRune('\n')
		builder.WriteString(errorHintStyle.Render(hints))
	}

	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(errColor).
		Padding(0, 1).
		MarginTop(1)
	if width > 4 {
		pane = pane.Width(width - 4)
	}
	return pane.Render(builder.String())
}

// RecoveryHints formats actions as "[r] Retry  [esc] Dismiss".
func RecoveryHints(actions []interfaces.Action) string {
	hints := make([]string, 0, len(actions))
	for _, a := range actions {
		if a.Key == "" {
			continue
		}
		hints = append(hints, fmt.Sprintf("[%s] %s", a.Key, a.Name))
	}
	return strings.Join(hints, "  ")
}
