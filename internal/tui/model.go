// Package tui is a terminal front-end running the same render passes as the
// browser surface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"

	"github.com/Veraticus/ragassist/internal/conversation"
	"github.com/Veraticus/ragassist/internal/render"
)

// Renderer runs a render pass.
type Renderer interface {
	Pass(ctx context.Context, sessionID, userEmail string, action render.Action) (*render.Page, error)
}

// passMsg carries the result of a render pass back into Update.
type passMsg struct {
	page *render.Page
	err  error
}

// Model is the bubbletea model for one terminal session.
type Model struct {
	ctx       context.Context
	renderer  Renderer
	markdown  *glamour.TermRenderer
	style     string
	page      *render.Page
	err       error
	sessionID string
	email     string
	input     textinput.Model
	spinner   spinner.Model
	width     int
	busy      bool
	quitting  bool
}

// Option is a functional option for configuring a Model.
type Option func(*Model)

// WithSessionID fixes the session ID instead of generating one.
func WithSessionID(id string) Option {
	return func(m *Model) {
		if id != "" {
			m.sessionID = id
		}
	}
}

// WithGlamourStyle picks the markdown style for answers, e.g. "dark",
// "light" or "notty".
func WithGlamourStyle(style string) Option {
	return func(m *Model) {
		if style != "" {
			m.style = style
		}
	}
}

// NewModel creates a terminal model bound to renderer.
func NewModel(ctx context.Context, renderer Renderer, email string, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask me anything about your SharePoint data..."
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		renderer:  renderer,
		sessionID: uuid.NewString(),
		email:     email,
		input:     ti,
		spinner:   sp,
		style:     "dark",
		width:     100,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.markdown = newMarkdown(m.style, m.width)
	return m
}

func newMarkdown(style string, width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(max(20, width-4)),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init runs the first pass.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.pass(render.None()))
}

func (m Model) pass(action render.Action) tea.Cmd {
	return func() tea.Msg {
		page, err := m.renderer.Pass(m.ctx, m.sessionID, m.email, action)
		return passMsg{page: page, err: err}
	}
}

// start marks the model busy and runs action.
func (m Model) start(action render.Action) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, tea.Batch(m.spinner.Tick, m.pass(action))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width != m.width {
			m.width = msg.Width
			m.markdown = newMarkdown(m.style, m.width)
		}
		m.input.Width = max(10, msg.Width-4)
		return m, nil

	case passMsg:
		return m.handlePass(msg)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePass(msg passMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.busy = false
		m.err = msg.err
		return m, nil
	}
	if msg.page.Rerender {
		return m, m.pass(render.None())
	}

	m.busy = false
	m.err = nil
	m.page = msg.page
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}
	if m.busy || m.page == nil {
		return m, nil
	}

	staged := m.page.HasStaged

	switch {
	case msg.Type == tea.KeyCtrlR:
		return m.start(render.Reset())
	case msg.Type == tea.KeyCtrlT:
		return m.start(render.ToggleHistory())
	case staged && (msg.Type == tea.KeyEnter || msg.String() == "y"):
		return m.start(render.ConfirmStaged())
	case staged && (msg.Type == tea.KeyEsc || msg.String() == "n"):
		return m.start(render.DiscardStaged())
	case msg.Type == tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit
	case msg.Type == tea.KeyEnter && !staged:
		text := m.input.Value()
		m.input.Reset()
		return m.start(render.Submit(text))
	case msg.Alt && msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
		// alt+1..9 picks a question so plain digits stay typeable
		if i := int(msg.Runes[0] - '1'); i >= 0 && i < len(m.page.Questions) && i < 9 {
			return m.start(render.Stage(i))
		}
		return m, nil
	}

	if staged {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.page == nil {
		if m.err != nil {
			return errorStyle.Render("Error: "+m.err.Error()) + "\n"
		}
		return m.spinner.View() + " Loading...\n"
	}

	p := m.page
	var b strings.Builder

	b.WriteString(titleStyle.Render(p.Title) + "\n")
	if p.Subtitle != "" {
		b.WriteString(subtitleStyle.Render(p.Subtitle) + "\n")
	}

	b.WriteString(headingStyle.Render("Try These Questions") + "\n")
	for i, q := range p.Questions {
		b.WriteString(questionStyle.Render(fmt.Sprintf("  %d. %s", i+1, q)) + "\n")
	}

	b.WriteString(headingStyle.Render("Chat History") + "\n")
	m.writeHistory(&b)

	if p.Error != nil {
		b.WriteString(errorStyle.Render(p.Error.Summary) + "\n")
		b.WriteString(errorStyle.Render(p.Error.Error()) + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + " Thinking...\n")
	case p.HasStaged:
		b.WriteString(infoStyle.Render(p.StagedLine()) + "\n")
		b.WriteString(helpStyle.Render("enter/y: use this question • esc/n: clear selection") + "\n")
	default:
		b.WriteString(m.input.View() + "\n")
	}

	b.WriteString(statusStyle.Render(fmt.Sprintf("Messages: %d • Status: %s • User: %s • Endpoint: %s (%s)",
		p.Session.MessageCount, p.Session.Status, p.Session.UserEmail, p.Session.Endpoint, p.Session.Provider)) + "\n")
	b.WriteString(helpStyle.Render(m.helpLine()) + "\n")

	return b.String()
}

func (m Model) writeHistory(b *strings.Builder) {
	v := m.page.History
	if v.Empty {
		b.WriteString(infoStyle.Render("Start a conversation by selecting a question above or typing your own message below") + "\n")
		return
	}
	if v.Banner != "" {
		b.WriteString(infoStyle.Render(v.Banner) + "\n")
	}

	for _, msg := range v.Messages {
		if msg.Role == conversation.RoleUser {
			b.WriteString(userStyle.Render("You: "+msg.Content) + "\n")
			continue
		}
		b.WriteString(roleStyle.Render("Assistant:") + "\n")
		b.WriteString(m.renderMarkdown(msg.Content))
	}
}

func (m Model) renderMarkdown(content string) string {
	if m.markdown != nil {
		if out, err := m.markdown.Render(content); err == nil {
			return out
		}
	}
	return content + "\n"
}

func (m Model) helpLine() string {
	parts := []string{"alt+1-9: pick a question", "enter: send", "ctrl+r: reset"}
	if m.page.History.Toggle.Offered {
		parts = append(parts, "ctrl+t: "+strings.ToLower(m.page.History.Toggle.Label))
	}
	parts = append(parts, "ctrl+c: quit")
	return strings.Join(parts, " • ")
}

// Run starts the terminal surface and blocks until the user quits or ctx ends.
func Run(ctx context.Context, renderer Renderer, email string, opts ...Option) error {
	p := tea.NewProgram(NewModel(ctx, renderer, email, opts...), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("terminal ui failed: %w", err)
	}
	return nil
}
