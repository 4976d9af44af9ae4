package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ragassist/internal/chat"
	"github.com/Veraticus/ragassist/internal/config"
	"github.com/Veraticus/ragassist/internal/conversation"
	"github.com/Veraticus/ragassist/internal/mocks"
	"github.com/Veraticus/ragassist/internal/render"
	"github.com/Veraticus/ragassist/internal/serving"
)

func newTestModel(t *testing.T) (Model, *mocks.MockEndpoint) {
	t.Helper()

	endpoint := mocks.NewMockEndpoint()
	controller, err := chat.NewController(endpoint)
	require.NoError(t, err)

	o, err := render.NewOrchestrator(conversation.NewStore(time.Hour), controller, config.Default().UI,
		render.WithEndpointInfo("rag-endpoint", "gemini"))
	require.NoError(t, err)

	m := NewModel(context.Background(), o, "ada@example.com",
		WithSessionID("tui-session"),
		WithGlamourStyle("notty"))
	return m, endpoint
}

// drive runs cmd and feeds passMsg results back until the model settles.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			cmd = nil
			for _, c := range batch {
				if c == nil {
					continue
				}
				if pm, ok := c().(passMsg); ok {
					msg = pm
					break
				}
			}
		}
		pm, ok := msg.(passMsg)
		if !ok {
			return m
		}
		var next tea.Model
		next, cmd = m.Update(pm)
		m = next.(Model)
	}
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func altKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s), Alt: true}
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drive(t, next.(Model), cmd)
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		next, _ := m.Update(key(string(r)))
		m = next.(Model)
	}
	return m
}

func TestInitialPass(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Contains(t, m.View(), "Loading")

	m = drive(t, m, m.Init())
	require.NotNil(t, m.page)

	view := m.View()
	assert.Contains(t, view, "Databricks RAG Assistant")
	assert.Contains(t, view, "1. What is Lakeflow and how does it work?")
	assert.Contains(t, view, "Start a conversation")
	assert.Contains(t, view, "User: ada@example.com")
	assert.Contains(t, view, "Endpoint: rag-endpoint (gemini)")
}

func TestSubmitTypedQuestion(t *testing.T) {
	m, endpoint := newTestModel(t)
	m = drive(t, m, m.Init())

	m = typeText(t, m, "hello there")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.busy)
	assert.Equal(t, 2, m.page.Session.MessageCount)
	assert.Empty(t, m.input.Value())

	view := m.View()
	assert.Contains(t, view, "You: hello there")
	assert.Contains(t, view, "Mock response for: hello there")
	require.Len(t, endpoint.GetCalls(), 1)
}

func TestStageConfirmAndDiscard(t *testing.T) {
	m, endpoint := newTestModel(t)
	m = drive(t, m, m.Init())
	questions := config.Default().UI.Questions

	m = press(t, m, altKey("2"))
	assert.True(t, m.page.HasStaged)
	assert.Contains(t, m.View(), "Selected question: "+questions[1])
	assert.Empty(t, m.input.Value(), "alt+digit selected a question instead of being typed")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.page.HasStaged)
	assert.Empty(t, endpoint.GetCalls())

	m = press(t, m, altKey("3"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.page.HasStaged)
	assert.Equal(t, 2, m.page.Session.MessageCount)

	calls := endpoint.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, questions[2], calls[0].Request.Messages[0].Content)
}

func TestDigitsAreTyped(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "after other text", text: "q1"},
		{name: "at the start of a question", text: "2 questions about Lakeflow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, endpoint := newTestModel(t)
			m = drive(t, m, m.Init())

			m = typeText(t, m, tt.text)
			assert.Equal(t, tt.text, m.input.Value())
			assert.False(t, m.page.HasStaged)

			m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			calls := endpoint.GetCalls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.text, calls[0].Request.Messages[0].Content)
		})
	}
}

func TestAltDigitOutOfRangeIsIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m = drive(t, m, m.Init())

	m = press(t, m, altKey("9"))
	assert.False(t, m.page.HasStaged)
	assert.Empty(t, m.input.Value())
}

func TestResizeRewrapsAnswers(t *testing.T) {
	m, endpoint := newTestModel(t)
	m = drive(t, m, m.Init())
	endpoint.SetResponse(serving.Text(strings.Repeat("lakeflow pipelines ingest data ", 12)))

	m = typeText(t, m, "explain")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	answer := m.page.History.Messages[1].Content
	assert.Greater(t, widest(m.renderMarkdown(answer)), 60)

	before := m.markdown
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 40})
	m = next.(Model)

	assert.NotSame(t, before, m.markdown, "renderer rebuilt for the new width")
	assert.LessOrEqual(t, widest(m.renderMarkdown(answer)), 60)
}

func widest(s string) int {
	w := 0
	for _, line := range strings.Split(s, "\n") {
		w = max(w, lipgloss.Width(line))
	}
	return w
}

func TestToggleAndReset(t *testing.T) {
	m, _ := newTestModel(t)
	m = drive(t, m, m.Init())

	for i := 0; i < 4; i++ {
		m = typeText(t, m, fmt.Sprintf("question %d", i))
		m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	}
	assert.Contains(t, m.View(), "to see 2 earlier messages")
	assert.Contains(t, m.View(), "ctrl+t: show all history")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Len(t, m.page.History.Messages, 8)
	assert.Contains(t, m.View(), "ctrl+t: show recent only")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Zero(t, m.page.Session.MessageCount)
	assert.Contains(t, m.View(), "Start a conversation")
}

func TestTurnErrorIsShown(t *testing.T) {
	m, endpoint := newTestModel(t)
	m = drive(t, m, m.Init())
	endpoint.SetError(errors.New("endpoint exploded"))

	m = typeText(t, m, "hi")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	view := m.View()
	assert.Contains(t, view, "Error getting response from endpoint: endpoint exploded")
	assert.Equal(t, 1, m.page.Session.MessageCount)
}

func TestKeysIgnoredWhileBusy(t *testing.T) {
	m, endpoint := newTestModel(t)
	m = drive(t, m, m.Init())
	m.busy = true

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.True(t, next.(Model).busy)
	assert.Contains(t, next.(Model).View(), "Thinking")
	assert.Empty(t, endpoint.GetCalls())
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	m = drive(t, m, m.Init())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.(Model).View())
}

func TestPassErrorShown(t *testing.T) {
	m, _ := newTestModel(t)
	next, _ := m.Update(passMsg{err: errors.New("store unavailable")})
	assert.Contains(t, next.(Model).View(), "Error: store unavailable")
}
