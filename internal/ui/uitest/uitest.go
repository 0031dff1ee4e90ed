// Package uitest holds fakes and helpers for driving bubbletea models in
// tests without a terminal.
package uitest

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/interfaces"
)

// FakeStore is a scripted interfaces.StoreClient. Queued errors are
// returned first; once the queue is empty calls succeed.
type FakeStore struct {
	mu sync.Mutex

	Token    string
	Products []interfaces.Product

	LoginErrs   []error
	ListErrs    []error
	ProductErrs []error

	LoginCalls   int
	ListCalls    int
	ProductCalls int

	// BeforeProduct, when set, runs at the start of GetProduct and may
	// block to hold a request in flight.
	BeforeProduct func(id int)
}

var _ interfaces.StoreClient = (*FakeStore)(nil)

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (f *FakeStore) Authenticate(_ context.Context, username, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoginCalls++
	if err := pop(&f.LoginErrs); err != nil {
		return "", err
	}
	if f.Token == "" {
		return "token-" + username, nil
	}
	return f.Token, nil
}

func (f *FakeStore) ListProducts(context.Context) ([]interfaces.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	if err := pop(&f.ListErrs); err != nil {
		return nil, err
	}
	return append([]interfaces.Product(nil), f.Products...), nil
}

func (f *FakeStore) GetProduct(_ context.Context, id int) (*interfaces.Product, error) {
	if f.BeforeProduct != nil {
		f.BeforeProduct(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ProductCalls++
	if err := pop(&f.ProductErrs); err != nil {
		return nil, err
	}
	for _, p := range f.Products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, &apperrors.LocalFault{Message: "not found"}
}

func (f *FakeStore) Ping(context.Context) (time.Duration, error) {
	return time.Millisecond, nil
}

// Drain runs cmd and every command batched inside it, returning the
// produced messages. Spinner ticks are dropped.
func Drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
		return nil
	case spinner.TickMsg:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, Drain(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

// Key builds a key press for s, e.g. "enter", "esc", "ctrl+r" or "r".
func Key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// Type sends each rune of text to m as a key press.
func Type(m tea.Model, text string) tea.Model {
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}
