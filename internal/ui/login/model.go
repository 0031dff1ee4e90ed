// Package login implements the sign-in screen.
package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/interfaces"
	"github.com/storefront-console/storefront/internal/ui/components"
)

// OperationLabel names the login operation in logs and metrics.
const OperationLabel = "Login"

// LoggedInMsg is sent once a session has been established.
type LoggedInMsg struct {
	Subject string
}

type loginResultMsg struct {
	err error
}

const (
	fieldUsername = iota
	fieldPassword
)

// Model is the login screen.
type Model struct {
	ctx     context.Context
	client  interfaces.StoreClient
	session interfaces.SessionGate
	handler *apperrors.Handler
	theme   interfaces.Theme

	inputs  []textinput.Model
	focus   int
	spinner spinner.Model
	width   int
}

// New creates the login screen. handler should use LoginMessages.
func New(ctx context.Context, client interfaces.StoreClient, session interfaces.SessionGate, handler *apperrors.Handler, theme interfaces.Theme) *Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.Prompt = "User     "
	username.CharLimit = 64
	username.Cursor.SetMode(cursor.CursorStatic)
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Cursor.SetMode(cursor.CursorStatic)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	return &Model{
		ctx:     ctx,
		client:  client,
		session: session,
		handler: handler,
		theme:   theme,
		inputs:  []textinput.Model{username, password},
		spinner: s,
	}
}

// Handler exposes the login operation handler.
func (m *Model) Handler() *apperrors.Handler {
	return m.handler
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case loginResultMsg:
		if msg.err != nil {
			// The handler has recorded the failure; the view reads it.
			m.inputs[fieldPassword].SetValue("")
			return m, nil
		}
		return m, func() tea.Msg { return LoggedInMsg{Subject: m.session.Subject()} }

	case spinner.TickMsg:
		if !m.handler.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.handler.Busy() {
		// Input is frozen while the request is in flight.
		return nil, msg.Type != tea.KeyCtrlC
	}

	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.setFocus((m.focus + 1) % len(m.inputs))
		return nil, true
	case "enter":
		if m.focus == fieldUsername && m.inputs[fieldPassword].Value() == "" {
			m.setFocus(fieldPassword)
			return nil, true
		}
		return m.submit(apperrors.Execute[struct{}]), true
	case "ctrl+r":
		if m.handler.IsRetryable() {
			return m.submit(apperrors.Retry[struct{}]), true
		}
		return nil, true
	case "esc":
		m.handler.Clear()
		return nil, true
	}
	return nil, false
}

func (m *Model) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

type runner func(context.Context, *apperrors.Handler, func(context.Context) (struct{}, error), string) (struct{}, error)

// submit validates the form locally and starts the login request.
func (m *Model) submit(run runner) tea.Cmd {
	username := strings.TrimSpace(m.inputs[fieldUsername].Value())
	password := m.inputs[fieldPassword].Value()

	if username == "" || password == "" {
		field := "username"
		if username != "" {
			field = "password"
		}
		m.handler.Report(&apperrors.InputFault{Field: field}, OperationLabel)
		return nil
	}

	op := func(ctx context.Context) (struct{}, error) {
		token, err := m.client.Authenticate(ctx, username, password)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, m.session.Establish(ctx, token)
	}

	ctx := m.ctx
	handler := m.handler
	login := func() tea.Msg {
		_, err := run(ctx, handler, op, OperationLabel)
		if apperrors.Is(err, apperrors.ErrBusy) {
			return nil
		}
		return loginResultMsg{err: err}
	}
	return tea.Batch(login, m.spinner.Tick)
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(components.Title(m.theme, "Storefront · Sign in"))
	b.WriteRune('\n')
	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteRune('\n')
	}

	state := m.handler.State()
	switch {
	case state.IsBusy:
		b.WriteString("\n" + m.spinner.View() + " Signing in…")
	case state.CurrentError != nil:
		b.WriteString(components.RenderErrorPane(state.CurrentError, m.theme, m.width))
	}

	legend := []string{"tab", "next field", "enter", "sign in"}
	if m.handler.IsRetryable() {
		legend = append(legend, "ctrl+r", "retry")
	}
	legend = append(legend, "ctrl+c", "quit")
	b.WriteString("\n" + components.Help(legend...))
	return b.String()
}
