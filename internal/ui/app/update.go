package app

import (
	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/ui/detail"
	"github.com/storefront-console/storefront/internal/ui/login"
	"github.com/storefront-console/storefront/internal/ui/products"
)

// Update handles navigation messages and delegates the rest to the active
// screen.
func (c *Controller) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return c, tea.Quit
		case "q":
			// Login takes free text, so q only quits elsewhere.
			if c.current != ViewLogin {
				return c, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		c.width, c.height = msg.Width, msg.Height
		if active := c.active(); active != nil {
			var cmd tea.Cmd
			_, cmd = active.Update(msg)
			return c, cmd
		}
		return c, nil

	case sessionCheckedMsg:
		if msg.active {
			return c, c.showProducts("stored session")
		}
		return c, c.showLogin("no stored session")

	case login.LoggedInMsg:
		c.deps.Logger.Info("Signed in", "subject", msg.Subject)
		return c, c.showProducts("logged in")

	case products.LoggedOutMsg:
		c.products = nil
		c.leaveDetail()
		return c, c.showLogin("logged out")

	case products.OpenProductMsg:
		c.leaveDetail()
		c.detail = detail.New(c.deps.Context, c.deps.Client, c.newHandler(apperrors.ProductsMessages), c.deps.Highlighter, c.deps.Theme, msg.Product)
		return c, c.switchTo(ViewDetail, "product opened", c.detail)

	case detail.BackMsg:
		c.leaveDetail()
		c.deps.Logger.LogUIStateChange(string(c.current), string(ViewProducts), "back")
		c.current = ViewProducts
		return c, nil
	}

	active := c.active()
	if active == nil {
		return c, nil
	}
	_, cmd := active.Update(msg)
	return c, cmd
}

func (c *Controller) active() tea.Model {
	switch c.current {
	case ViewLogin:
		return c.login
	case ViewProducts:
		return c.products
	case ViewDetail:
		return c.detail
	default:
		return nil
	}
}

// leaveDetail drops the detail screen. Its handler is cleared so a refresh
// still in flight is not recorded.
func (c *Controller) leaveDetail() {
	if d, ok := c.detail.(*detail.Model); ok {
		d.Handler().Clear()
	}
	c.detail = nil
}

func (c *Controller) showLogin(reason string) tea.Cmd {
	c.login = login.New(c.deps.Context, c.deps.Client, c.deps.Session, c.newHandler(apperrors.LoginMessages), c.deps.Theme)
	return c.switchTo(ViewLogin, reason, c.login)
}

func (c *Controller) showProducts(reason string) tea.Cmd {
	c.products = products.New(c.deps.Context, c.deps.Client, c.deps.Session, c.newHandler(apperrors.ProductsMessages), c.deps.Theme)
	return c.switchTo(ViewProducts, reason, c.products)
}

// switchTo makes next active, hands it the terminal size and starts it.
func (c *Controller) switchTo(view View, reason string, next tea.Model) tea.Cmd {
	c.deps.Logger.LogUIStateChange(string(c.current), string(view), reason)
	c.current = view

	var cmds []tea.Cmd
	if c.width > 0 {
		_, cmd := next.Update(tea.WindowSizeMsg{Width: c.width, Height: c.height})
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, next.Init())
	return tea.Batch(cmds...)
}
