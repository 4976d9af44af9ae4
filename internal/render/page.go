package render

import (
	"github.com/Veraticus/ragassist/internal/chat"
	"github.com/Veraticus/ragassist/internal/config"
	"github.com/Veraticus/ragassist/internal/history"
)

// StatusActive is the session status shown in the sidebar.
const StatusActive = "Active"

// SessionInfo is the sidebar summary.
type SessionInfo struct {
	Status       string
	UserEmail    string
	Endpoint     string
	Provider     string
	MessageCount int
}

// Page is everything a surface needs to draw one pass.
type Page struct {
	Error          *chat.TurnError
	Staged         string
	Title          string
	Subtitle       string
	Footer         string
	Questions      []string
	Resources      []config.Resource
	HelpTips       []string
	History        history.View
	Session        SessionInfo
	HasStaged      bool
	AcceptFreeText bool
	Rerender       bool
}

// StagedLine is the info line shown while a question is staged.
func (p *Page) StagedLine() string {
	if !p.HasStaged {
		return ""
	}
	return "Selected question: " + p.Staged
}
