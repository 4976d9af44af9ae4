// Package conversation holds per-session chat state: the message log, the
// history toggle and the staged suggested question.
package conversation

import (
	"slices"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	// RoleUser marks a message typed or confirmed by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the serving endpoint.
	RoleAssistant Role = "assistant"
)

// Message is one entry of the chronological message log.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the mutable state of one browser session.
type State struct {
	CreatedAt      time.Time `json:"created_at"`
	LastActivity   time.Time `json:"last_activity"`
	StagedQuestion *string   `json:"staged_question,omitempty"`
	ID             string    `json:"id"`
	Messages       []Message `json:"messages"`
	ShowAllHistory bool      `json:"show_all_history"`
}

// NewState returns a session state with default values.
func NewState(id string, now time.Time) *State {
	return &State{
		ID:           id,
		Messages:     []Message{},
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Append adds a message to the end of the log.
func (s *State) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// Len returns the number of logged messages.
func (s *State) Len() int {
	return len(s.Messages)
}

// Reset empties the message log and restores the history toggle.
func (s *State) Reset() {
	s.Messages = []Message{}
	s.ShowAllHistory = false
}

// Clone returns a deep copy that shares no memory with s.
func (s *State) Clone() State {
	c := *s
	c.Messages = slices.Clone(s.Messages)
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	if s.StagedQuestion != nil {
		q := *s.StagedQuestion
		c.StagedQuestion = &q
	}
	return c
}
