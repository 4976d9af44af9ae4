// Package render runs one render pass: apply the user's action to the
// session, run at most one conversation turn, and describe the page.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Veraticus/ragassist/internal/chat"
	"github.com/Veraticus/ragassist/internal/config"
	"github.com/Veraticus/ragassist/internal/conversation"
	"github.com/Veraticus/ragassist/internal/history"
)

// Turner runs one conversation turn against a session.
type Turner interface {
	Handle(ctx context.Context, state *conversation.State, prompt string) (chat.Outcome, error)
}

// Orchestrator wires the session store, the controller and the presenter.
type Orchestrator struct {
	store    conversation.SessionStore
	turner   Turner
	logger   *slog.Logger
	ui       config.UIConfig
	endpoint string
	provider string
}

// Option is a functional option for configuring an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEndpointInfo sets the endpoint name and provider shown in the sidebar.
func WithEndpointInfo(endpoint, provider string) Option {
	return func(o *Orchestrator) {
		o.endpoint = endpoint
		o.provider = provider
	}
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(store conversation.SessionStore, turner Turner, ui config.UIConfig, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("orchestrator creation failed: session store is required")
	}
	if turner == nil {
		return nil, fmt.Errorf("orchestrator creation failed: turner is required")
	}

	o := &Orchestrator{
		store:  store,
		turner: turner,
		ui:     ui,
		logger: slog.Default().With(slog.String("component", "render")),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Questions returns the suggested questions.
func (o *Orchestrator) Questions() []string {
	return slices.Clone(o.ui.Questions)
}

// Pass applies action to the session and returns the page to draw.
//
// The session stays locked for the whole pass, including the endpoint call.
// A failed turn is reported on the page, not as an error; the returned error
// is reserved for actions that cannot be applied, such as an out of range
// question index.
func (o *Orchestrator) Pass(ctx context.Context, sessionID, userEmail string, action Action) (*Page, error) {
	logger := o.logger.With(
		slog.String("session_id", sessionID),
		slog.String("action", action.Kind.String()),
	)

	var page *Page
	err := o.store.WithSession(sessionID, func(state *conversation.State) error {
		prompt, mutated, err := o.apply(state, action)
		if err != nil {
			return err
		}

		p := &Page{Rerender: mutated}

		if prompt != "" {
			out, err := o.turner.Handle(ctx, state, prompt)
			if turnErr, ok := chat.AsTurnError(err); ok {
				p.Error = turnErr
			} else if err != nil {
				return fmt.Errorf("turn failed: %w", err)
			}
			p.Rerender = out.Rerender
		}

		o.describe(p, state, userEmail)
		page = p
		return nil
	})
	if err != nil {
		logger.WarnContext(ctx, "Render pass rejected", slog.Any("error", err))
		return nil, err
	}

	logger.DebugContext(ctx, "Render pass complete",
		slog.Int("messages", page.Session.MessageCount),
		slog.Bool("rerender", page.Rerender),
		slog.Bool("turn_error", page.Error != nil))

	return page, nil
}

// apply mutates state for action and returns at most one prompt to send.
func (o *Orchestrator) apply(state *conversation.State, action Action) (string, bool, error) {
	switch action.Kind {
	case ActionNone:
		return "", false, nil

	case ActionStage:
		if action.Index < 0 || action.Index >= len(o.ui.Questions) {
			return "", false, fmt.Errorf("%w: %d", ErrUnknownQuestion, action.Index)
		}
		state.Stage(o.ui.Questions[action.Index])
		return "", true, nil

	case ActionConfirmStaged:
		q, ok := state.Confirm()
		if !ok {
			return "", false, nil
		}
		return q, true, nil

	case ActionDiscardStaged:
		_, had := state.Staged()
		state.Discard()
		return "", had, nil

	case ActionSubmit:
		if !state.AcceptsFreeText() || strings.TrimSpace(action.Text) == "" {
			return "", false, nil
		}
		return action.Text, false, nil

	case ActionToggleHistory:
		if state.Len() <= history.WindowSize {
			return "", false, nil
		}
		state.ShowAllHistory = !state.ShowAllHistory
		return "", true, nil

	case ActionReset:
		state.Reset()
		return "", true, nil
	}

	return "", false, fmt.Errorf("%w: %s", ErrUnknownAction, action.Kind)
}

func (o *Orchestrator) describe(p *Page, state *conversation.State, userEmail string) {
	p.Title = o.ui.Title
	p.Subtitle = o.ui.Subtitle
	p.Footer = o.ui.Footer
	p.Questions = slices.Clone(o.ui.Questions)
	p.Resources = slices.Clone(o.ui.Resources)
	p.HelpTips = slices.Clone(o.ui.HelpTips)

	p.Session = SessionInfo{
		MessageCount: state.Len(),
		Status:       StatusActive,
		UserEmail:    userEmail,
		Endpoint:     o.endpoint,
		Provider:     o.provider,
	}

	p.Staged, p.HasStaged = state.Staged()
	p.AcceptFreeText = state.AcceptsFreeText()
	p.History = history.Present(slices.Clone(state.Messages), state.ShowAllHistory)
}
