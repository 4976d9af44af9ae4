package render

import "fmt"

// ActionKind identifies what the user did to trigger a pass.
type ActionKind int

const (
	// ActionNone is a plain page view.
	ActionNone ActionKind = iota
	// ActionStage selects a suggested question by index.
	ActionStage
	// ActionConfirmStaged sends the staged question.
	ActionConfirmStaged
	// ActionDiscardStaged clears the staged question.
	ActionDiscardStaged
	// ActionSubmit sends typed text.
	ActionSubmit
	// ActionToggleHistory flips between the recent window and the full log.
	ActionToggleHistory
	// ActionReset empties the conversation.
	ActionReset
)

// String returns a short label used in logs.
func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionStage:
		return "stage"
	case ActionConfirmStaged:
		return "confirm_staged"
	case ActionDiscardStaged:
		return "discard_staged"
	case ActionSubmit:
		return "submit"
	case ActionToggleHistory:
		return "toggle_history"
	case ActionReset:
		return "reset"
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Action is one user interaction. Index is used by ActionStage and Text by
// ActionSubmit.
type Action struct {
	Text  string
	Kind  ActionKind
	Index int
}

// None returns the action for a plain page view.
func None() Action { return Action{Kind: ActionNone} }

// Stage returns the action selecting suggested question i.
func Stage(i int) Action { return Action{Kind: ActionStage, Index: i} }

// ConfirmStaged returns the action sending the staged question.
func ConfirmStaged() Action { return Action{Kind: ActionConfirmStaged} }

// DiscardStaged returns the action clearing the staged question.
func DiscardStaged() Action { return Action{Kind: ActionDiscardStaged} }

// Submit returns the action sending typed text.
func Submit(text string) Action { return Action{Kind: ActionSubmit, Text: text} }

// ToggleHistory returns the action flipping the history view.
func ToggleHistory() Action { return Action{Kind: ActionToggleHistory} }

// Reset returns the action emptying the conversation.
func Reset() Action { return Action{Kind: ActionReset} }
