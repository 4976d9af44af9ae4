// Package history decides which part of a message log is displayed.
package history

import (
	"fmt"

	"github.com/Veraticus/ragassist/internal/conversation"
)

// WindowSize is how many trailing messages the collapsed view shows: the
// latest three question/answer pairs.
const WindowSize = 6

const (
	// ShowAllLabel is the toggle label while the view is collapsed.
	ShowAllLabel = "Show All History"
	// ShowRecentLabel is the toggle label while the full log is shown.
	ShowRecentLabel = "Show Recent Only"
	// EmptyPlaceholder is shown instead of messages when the log is empty.
	EmptyPlaceholder = "Start a conversation by selecting a question above or typing your own message below"
)

// Toggle describes the show-all/show-recent control.
type Toggle struct {
	Label   string
	Offered bool
	ShowAll bool
}

// View is the display decision for one render.
type View struct {
	Banner   string
	Toggle   Toggle
	Messages []conversation.Message
	Hidden   int
	Total    int
	Empty    bool
}

// Truncated reports whether older messages were left out.
func (v View) Truncated() bool {
	return v.Hidden > 0
}

// Present picks the messages to display. Logs of up to WindowSize messages are
// shown whole and showAll is ignored for them.
func Present(messages []conversation.Message, showAll bool) View {
	total := len(messages)
	v := View{
		Total:    total,
		Empty:    total == 0,
		Messages: messages,
	}

	if total <= WindowSize {
		return v
	}

	v.Toggle = Toggle{Offered: true, ShowAll: showAll, Label: ShowAllLabel}
	if showAll {
		v.Toggle.Label = ShowRecentLabel
		return v
	}

	v.Hidden = total - WindowSize
	v.Messages = messages[v.Hidden:]
	v.Banner = fmt.Sprintf(
		"Showing latest 3 Q&A pairs. Click '%s' to see %d earlier messages.",
		ShowAllLabel, v.Hidden)
	return v
}
