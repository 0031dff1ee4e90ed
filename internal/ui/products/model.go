// Package products implements the catalogue screen.
package products

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/interfaces"
	"github.com/storefront-console/storefront/internal/ui/components"
)

// OperationLabel names the catalogue load in logs and metrics.
const OperationLabel = "Products"

// OpenProductMsg asks the controller to show a product.
type OpenProductMsg struct {
	Product interfaces.Product
}

// LoggedOutMsg is sent after the user ended the session from this screen.
type LoggedOutMsg struct{}

type loadedMsg struct {
	screen   uint64
	products []interfaces.Product
	err      error
}

var screens atomic.Uint64

// Model is the product list.
type Model struct {
	ctx     context.Context
	client  interfaces.StoreClient
	session interfaces.SessionGate
	handler *apperrors.Handler
	theme   interfaces.Theme
	screen  uint64

	all        []interfaces.Product
	visible    []interfaces.Product
	categories []string
	category   int // index into categories; -1 is all
	cursor     int
	loaded     bool

	spinner spinner.Model
	width   int
	height  int
}

// New creates the catalogue screen. handler should use ProductsMessages.
func New(ctx context.Context, client interfaces.StoreClient, session interfaces.SessionGate, handler *apperrors.Handler, theme interfaces.Theme) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	return &Model{
		ctx:      ctx,
		client:   client,
		session:  session,
		handler:  handler,
		theme:    theme,
		screen:   screens.Add(1),
		category: -1,
		spinner:  s,
	}
}

// Handler exposes the load operation handler.
func (m *Model) Handler() *apperrors.Handler {
	return m.handler
}

// Visible returns the products shown under the current filter.
func (m *Model) Visible() []interfaces.Product {
	return m.visible
}

// Category returns the active filter or "" for all.
func (m *Model) Category() string {
	if m.category < 0 {
		return ""
	}
	return m.categories[m.category]
}

func (m *Model) Init() tea.Cmd {
	return m.load(apperrors.Execute[[]interfaces.Product])
}

type runner func(context.Context, *apperrors.Handler, func(context.Context) ([]interfaces.Product, error), string) ([]interfaces.Product, error)

func (m *Model) load(run runner) tea.Cmd {
	ctx, client, handler, screen := m.ctx, m.client, m.handler, m.screen
	fetch := func() tea.Msg {
		products, err := run(ctx, handler, client.ListProducts, OperationLabel)
		if apperrors.Is(err, apperrors.ErrBusy) {
			return nil
		}
		return loadedMsg{screen: screen, products: products, err: err}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case loadedMsg:
		if msg.err == nil && msg.screen == m.screen {
			m.setProducts(msg.products)
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
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "c":
		m.cycleCategory()
	case "enter":
		if m.cursor < len(m.visible) {
			p := m.visible[m.cursor]
			return func() tea.Msg { return OpenProductMsg{Product: p} }
		}
	case "r":
		if m.handler.IsRetryable() {
			return m.load(apperrors.Retry[[]interfaces.Product])
		}
	case "f5":
		return m.load(apperrors.Execute[[]interfaces.Product])
	case "esc":
		m.handler.Clear()
	case "l":
		ctx, session := m.ctx, m.session
		return func() tea.Msg {
			session.End(ctx)
			return LoggedOutMsg{}
		}
	}
	return nil
}

func (m *Model) setProducts(products []interfaces.Product) {
	m.all = products
	m.loaded = true

	seen := map[string]bool{}
	m.categories = m.categories[:0]
	for _, p := range products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			m.categories = append(m.categories, p.Category)
		}
	}
	sort.Strings(m.categories)

	if m.category >= len(m.categories) {
		m.category = -1
	}
	m.applyFilter()
}

func (m *Model) cycleCategory() {
	if len(m.categories) == 0 {
		return
	}
	m.category++
	if m.category >= len(m.categories) {
		m.category = -1
	}
	m.applyFilter()
}

func (m *Model) applyFilter() {
	want := m.Category()
	m.visible = m.visible[:0]
	for _, p := range m.all {
		if want == "" || p.Category == want {
			m.visible = append(m.visible, p)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m *Model) View() string {
	var b strings.Builder

	title := "Products"
	if who := m.session.Subject(); who != "" {
		title += " · " + who
	}
	b.WriteString(components.Title(m.theme, title))
	b.WriteRune('\n')

	if c := m.Category(); c != "" {
		b.WriteString(components.RenderStatus(m.theme, components.StatusInfo, "Category: "+c))
		b.WriteRune('\n')
	}

	state := m.handler.State()
	switch {
	case state.IsBusy:
		b.WriteString(m.spinner.View() + " Loading products…\n")
	case m.loaded && len(m.visible) == 0 && state.CurrentError == nil:
		b.WriteString("No products.\n")
	}

	selected := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Accent))
	for i, p := range m.visible {
		line := fmt.Sprintf("%-60s %10s", truncate(p.Title, 60), components.Price(p.Price))
		if i == m.cursor {
			b.WriteString(selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteRune('\n')
	}

	if state.CurrentError != nil {
		b.WriteString(components.RenderErrorPane(state.CurrentError, m.theme, m.width))
		b.WriteRune('\n')
	}

	legend := []string{"↑/↓", "move", "enter", "open", "c", "category"}
	if m.handler.IsRetryable() {
		legend = append(legend, "r", "retry")
	}
	legend = append(legend, "l", "log out", "q", "quit")
	b.WriteString(components.Help(legend...))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
