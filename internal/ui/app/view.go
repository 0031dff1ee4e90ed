package app

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/storefront-console/storefront/internal/ui/components"
)

var frameStyle = lipgloss.NewStyle().Padding(1, 2)

// View renders the active screen.
func (c *Controller) View() string {
	active := c.active()
	if active == nil {
		return frameStyle.Render(components.RenderStatus(c.deps.Theme, components.StatusPending, "Checking session…"))
	}
	return frameStyle.Render(active.View())
}
