// Package detail implements the product detail screen with a local
// quantity stepper and an add-to-cart confirmation.
package detail

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/storefront-console/storefront/internal/content"
	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/interfaces"
	"github.com/storefront-console/storefront/internal/ui/components"
)

// OperationLabel names the product refresh in logs and metrics.
const OperationLabel = "Product"

// DefaultToastTTL is how long the add-to-cart confirmation stays visible.
const DefaultToastTTL = 2 * time.Second

// BackMsg asks the controller to return to the list.
type BackMsg struct{}

// refreshedMsg is tagged with the screen that asked for it so a result for
// a screen that was left is dropped.
type refreshedMsg struct {
	screen  uint64
	product *interfaces.Product
	err     error
}

var screens atomic.Uint64

type toastExpiredMsg struct {
	seq int
}

// Model shows one product.
type Model struct {
	ctx         context.Context
	client      interfaces.StoreClient
	handler     *apperrors.Handler
	highlighter *content.Highlighter
	theme       interfaces.Theme
	screen      uint64

	product  interfaces.Product
	quantity int
	showJSON bool

	toast    string
	toastSeq int
	ToastTTL time.Duration

	spinner spinner.Model
	width   int
}

// New creates the detail screen for p. The product is refreshed from the
// API on Init; until then the list copy is shown.
func New(ctx context.Context, client interfaces.StoreClient, handler *apperrors.Handler, highlighter *content.Highlighter, theme interfaces.Theme, p interfaces.Product) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	return &Model{
		ctx:         ctx,
		client:      client,
		handler:     handler,
		highlighter: highlighter,
		theme:       theme,
		screen:      screens.Add(1),
		product:     p,
		quantity:    1,
		ToastTTL:    DefaultToastTTL,
		spinner:     s,
	}
}

// Handler exposes the refresh operation handler.
func (m *Model) Handler() *apperrors.Handler { return m.handler }

// Product returns the product on screen.
func (m *Model) Product() interfaces.Product { return m.product }

// Quantity returns the stepper value, never below 1.
func (m *Model) Quantity() int { return m.quantity }

// Toast returns the visible confirmation, if any.
func (m *Model) Toast() string { return m.toast }

func (m *Model) Init() tea.Cmd {
	return m.refresh(apperrors.Execute[*interfaces.Product])
}

type runner func(context.Context, *apperrors.Handler, func(context.Context) (*interfaces.Product, error), string) (*interfaces.Product, error)

func (m *Model) refresh(run runner) tea.Cmd {
	ctx, client, handler, id, screen := m.ctx, m.client, m.handler, m.product.ID, m.screen
	fetch := func() tea.Msg {
		p, err := run(ctx, handler, func(ctx context.Context) (*interfaces.Product, error) {
			return client.GetProduct(ctx, id)
		}, OperationLabel)
		if apperrors.Is(err, apperrors.ErrBusy) {
			return nil
		}
		return refreshedMsg{screen: screen, product: p, err: err}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case refreshedMsg:
		if msg.screen != m.screen {
			return m, nil
		}
		if msg.err == nil && msg.product != nil && msg.product.ID == m.product.ID {
			m.product = *msg.product
		}

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}

	case spinner.TickMsg:
		if m.handler.Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "+", "=", "right":
		m.quantity++
	case "-", "left":
		if m.quantity > 1 {
			m.quantity--
		}
	case "a":
		return m.addToCart()
	case "j":
		m.showJSON = !m.showJSON
	case "r":
		if m.handler.IsRetryable() {
			return m.refresh(apperrors.Retry[*interfaces.Product])
		}
	case "esc":
		if m.handler.CurrentError() != nil {
			m.handler.Clear()
			return nil
		}
		return func() tea.Msg { return BackMsg{} }
	case "backspace", "b":
		return func() tea.Msg { return BackMsg{} }
	}
	return nil
}

// addToCart only confirms locally; there is no cart endpoint.
func (m *Model) addToCart() tea.Cmd {
	m.toastSeq++
	m.toast = fmt.Sprintf("Added %d × %s to cart", m.quantity, m.product.Title)
	seq := m.toastSeq
	return tea.Tick(m.ToastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

func (m *Model) View() string {
	var b strings.Builder
	p := m.product

	b.WriteString(components.Title(m.theme, p.Title))
	b.WriteRune('\n')

	if m.showJSON {
		raw, err := m.highlighter.ProductJSON(p)
		if err != nil {
			raw = err.Error()
		}
		b.WriteString(raw)
		b.WriteRune('\n')
	} else {
		label := lipgloss.NewStyle().Bold(true)
		fmt.Fprintf(&b, "%s %s\n", label.Render("Price:   "), components.Price(p.Price))
		fmt.Fprintf(&b, "%s %s\n", label.Render("Category:"), p.Category)
		fmt.Fprintf(&b, "%s %.1f (%d reviews)\n", label.Render("Rating:  "), p.Rating.Rate, p.Rating.Count)
		if p.Description != "" {
			desc := lipgloss.NewStyle().MarginTop(1)
			if m.width > 4 {
				desc = desc.Width(m.width - 4)
			}
			b.WriteString(desc.Render(p.Description))
			b.WriteRune('\n')
		}
	}

	fmt.Fprintf(&b, "\nQuantity: [-] %d [+]   Total: %s\n", m.quantity, components.Price(p.Price*float64(m.quantity)))

	if m.toast != "" {
		b.WriteString(components.RenderStatus(m.theme, components.StatusSuccess, m.toast))
		b.WriteRune('\n')
	}

	state := m.handler.State()
	switch {
	case state.IsBusy:
		b.WriteString(m.spinner.View() + " Refreshing…\n")
	case state.CurrentError != nil:
		b.WriteString(components.RenderErrorPane(state.CurrentError, m.theme, m.width))
		b.WriteRune('\n')
	}

	legend := []string{"+/-", "quantity", "a", "add to cart", "j", "json"}
	if m.handler.IsRetryable() {
		legend = append(legend, "r", "retry")
	}
	legend = append(legend, "esc", "back")
	b.WriteString(components.Help(legend...))
	return b.String()
}
