package mocks

import (
	"fmt"
	"time"

	"github.com/Veraticus/ragassist/internal/conversation"
)

// StateBuilder assembles session state for tests.
type StateBuilder struct {
	state *conversation.State
}

// NewStateBuilder starts an empty session with the given ID.
func NewStateBuilder(sessionID string) *StateBuilder {
	return &StateBuilder{state: conversation.NewState(sessionID, time.Now())}
}

// WithTurns appends n question/answer pairs numbered from 1.
func (b *StateBuilder) WithTurns(n int) *StateBuilder {
	for i := 1; i <= n; i++ {
		b.state.Append(conversation.Message{Role: conversation.RoleUser, Content: fmt.Sprintf("question %d", i)})
		b.state.Append(conversation.Message{Role: conversation.RoleAssistant, Content: fmt.Sprintf("answer %d", i)})
	}
	return b
}

// WithUnanswered appends a user message with no answer.
func (b *StateBuilder) WithUnanswered(question string) *StateBuilder {
	b.state.Append(conversation.Message{Role: conversation.RoleUser, Content: question})
	return b
}

// WithShowAll sets the history toggle.
func (b *StateBuilder) WithShowAll(showAll bool) *StateBuilder {
	b.state.ShowAllHistory = showAll
	return b
}

// WithStaged stages a suggested question.
func (b *StateBuilder) WithStaged(question string) *StateBuilder {
	b.state.Stage(question)
	return b
}

// Build returns the assembled state.
func (b *StateBuilder) Build() *conversation.State {
	return b.state
}

// Messages returns n alternating messages starting with a user message.
func Messages(n int) []conversation.Message {
	out := make([]conversation.Message, n)
	for i := range out {
		role := conversation.RoleUser
		if i%2 == 1 {
			role = conversation.RoleAssistant
		}
		out[i] = conversation.Message{Role: role, Content: fmt.Sprintf("message %d", i+1)}
	}
	return out
}
