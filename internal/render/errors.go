package render

import "errors"

var (
	// ErrUnknownQuestion is returned when a stage action names no suggested question.
	ErrUnknownQuestion = errors.New("unknown suggested question")

	// ErrUnknownAction is returned for an action kind the orchestrator does not handle.
	ErrUnknownAction = errors.New("unknown action")
)
