// Package app is the root bubbletea model. Every screen it opens gets a
// fresh operation handler, and it switches between login, catalogue and
// detail as the session changes.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/storefront-console/storefront/internal/content"
	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/interfaces"
	"github.com/storefront-console/storefront/internal/logging"
)

// View identifies the active screen.
type View string

const (
	ViewChecking View = "checking"
	ViewLogin    View = "login"
	ViewProducts View = "products"
	ViewDetail   View = "detail"
)

// Deps are the collaborators injected by the composition root.
type Deps struct {
	Context     context.Context
	Client      interfaces.StoreClient
	Session     interfaces.SessionGate
	Theme       interfaces.Theme
	Highlighter *content.Highlighter
	// Observer is attached to every handler when set.
	Observer apperrors.Observer
	Logger   *logging.Logger
}

type sessionCheckedMsg struct {
	active bool
}

// Controller routes messages to the active screen.
type Controller struct {
	deps        Deps
	handlerOpts []apperrors.Option

	current  View
	login    tea.Model
	products tea.Model
	detail   tea.Model

	width  int
	height int
}

// NewController wires the screens. Missing optional deps get defaults.
func NewController(deps Deps) *Controller {
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Logger == nil {
		deps.Logger = logging.GetUILogger()
	}
	if deps.Highlighter == nil {
		deps.Highlighter = content.ForTheme(deps.Theme)
	}

	opts := []apperrors.Option{apperrors.WithLogger(deps.Logger.WithComponent("errors"))}
	if deps.Observer != nil {
		opts = append(opts, apperrors.WithObserver(deps.Observer))
	}

	return &Controller{
		deps:        deps,
		handlerOpts: opts,
		current:     ViewChecking,
	}
}

// newHandler gives a screen its own handler. A result still in flight for a
// screen that was left cannot keep the next one busy.
func (c *Controller) newHandler(overrides apperrors.Messages) *apperrors.Handler {
	return apperrors.NewHandler(overrides, c.handlerOpts...)
}

// Current returns the active screen.
func (c *Controller) Current() View {
	return c.current
}

// Init decides the first screen from the stored session.
func (c *Controller) Init() tea.Cmd {
	ctx, session := c.deps.Context, c.deps.Session
	return func() tea.Msg {
		return sessionCheckedMsg{active: session.CheckSession(ctx)}
	}
}
