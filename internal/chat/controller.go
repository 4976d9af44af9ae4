// Package chat runs one conversation turn against the serving endpoint.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/ragassist/internal/conversation"
	"github.com/Veraticus/ragassist/internal/serving"
)

// DefaultMaxTokens caps the length of each generated answer.
const DefaultMaxTokens = 400

// Outcome describes what a turn did to the session.
type Outcome struct {
	// Answered is true when an assistant message was appended.
	Answered bool
	// Rerender asks the surface to run a fresh render pass.
	Rerender bool
}

// Limiter decides whether a session may send another question now.
type Limiter interface {
	Allow(sessionID string) bool
}

// Controller appends user turns, asks the endpoint, and appends answers.
type Controller struct {
	endpoint  serving.Endpoint
	limiter   Limiter
	recovery  *ErrorRecovery
	logger    *slog.Logger
	maxTokens int
}

// Option is a functional option for configuring a Controller.
type Option func(*Controller) error

// NewController creates a controller around endpoint.
func NewController(endpoint serving.Endpoint, opts ...Option) (*Controller, error) {
	if endpoint == nil {
		return nil, fmt.Errorf("controller creation failed: endpoint is required")
	}

	c := &Controller{
		endpoint:  endpoint,
		recovery:  NewErrorRecovery(),
		logger:    slog.Default().With(slog.String("component", "chat.controller")),
		maxTokens: DefaultMaxTokens,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	return c, nil
}

// WithMaxTokens overrides the generation budget.
func WithMaxTokens(n int) Option {
	return func(c *Controller) error {
		if n <= 0 {
			return fmt.Errorf("invalid option: max tokens must be positive")
		}
		c.maxTokens = n
		return nil
	}
}

// WithLimiter throttles questions per session. Refused questions are not
// appended to the log.
func WithLimiter(limiter Limiter) Option {
	return func(c *Controller) error {
		if limiter == nil {
			return fmt.Errorf("invalid option: limiter cannot be nil")
		}
		c.limiter = limiter
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) error {
		if logger == nil {
			return fmt.Errorf("invalid option: logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// Handle runs one turn for prompt. A blank prompt does nothing.
//
// The user message is appended before the endpoint is called, unless the
// limiter refuses the question. On failure it
// stays unanswered, no assistant message is appended, and a *TurnError is
// returned. There is exactly one attempt per prompt.
func (c *Controller) Handle(ctx context.Context, state *conversation.State, prompt string) (Outcome, error) {
	if strings.TrimSpace(prompt) == "" {
		return Outcome{}, nil
	}

	if c.limiter != nil && !c.limiter.Allow(state.ID) {
		c.logger.WarnContext(ctx, "Question refused by rate limit", slog.String("session_id", state.ID))
		return Outcome{}, &TurnError{
			Err:     ErrRateLimited,
			Prompt:  prompt,
			Type:    ErrorTypeRateLimit,
			Summary: "You're sending questions too quickly. Please wait a moment and try again.",
		}
	}

	state.Append(conversation.Message{Role: conversation.RoleUser, Content: prompt})

	logger := c.logger.With(
		slog.String("session_id", state.ID),
		slog.Int("messages", state.Len()),
	)

	start := time.Now()
	resp, err := c.endpoint.Query(ctx, serving.Request{
		Messages:  toServingMessages(state.Messages),
		MaxTokens: c.maxTokens,
	})
	if err == nil && resp == nil {
		err = fmt.Errorf("%w: endpoint returned no response", serving.ErrMalformedResponse)
	}
	if err != nil {
		turnErr := &TurnError{
			Err:     err,
			Prompt:  prompt,
			Type:    c.recovery.ClassifyError(err),
			Summary: c.recovery.GenerateUserMessage(err),
		}
		logger.ErrorContext(ctx, "Endpoint call failed",
			slog.String("error_type", turnErr.Type.String()),
			slog.Any("error", err),
			slog.Duration("elapsed", time.Since(start)),
		)
		return Outcome{}, turnErr
	}

	answer := serving.Normalize(resp)
	state.Append(conversation.Message{Role: conversation.RoleAssistant, Content: answer})

	logger.InfoContext(ctx, "Turn answered",
		slog.Int("answer_chars", len(answer)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return Outcome{Answered: true, Rerender: true}, nil
}

func toServingMessages(messages []conversation.Message) []serving.Message {
	out := make([]serving.Message, len(messages))
	for i, msg := range messages {
		out[i] = serving.Message{Role: string(msg.Role), Content: msg.Content}
	}
	return out
}
