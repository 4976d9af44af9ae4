// Package serving talks to the remote model serving endpoint that answers
// chat questions.
package serving

import (
	"context"
	"time"
)

// DefaultTimeout bounds one endpoint call when the caller's context has no deadline.
const DefaultTimeout = 120 * time.Second

// Endpoint is the remote model serving collaborator.
type Endpoint interface {
	// Query sends the ordered conversation and returns the endpoint's answer.
	Query(ctx context.Context, req Request) (Response, error)
}

// Message is one role/content pair of the request payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the payload of one endpoint call.
type Request struct {
	Messages  []Message
	MaxTokens int
}

// Response is what an endpoint returned. It is either Text or Structured.
type Response interface {
	isResponse()
}

// Text is a bare string answer.
type Text string

// Structured is an object answer; the reply lives in its "content" field.
type Structured map[string]any

func (Text) isResponse()       {}
func (Structured) isResponse() {}

// Normalize resolves a response to plain text. A structured answer without a
// string "content" field yields "".
func Normalize(r Response) string {
	switch v := r.(type) {
	case Text:
		return string(v)
	case Structured:
		if content, ok := v["content"].(string); ok {
			return content
		}
		return ""
	default:
		return ""
	}
}

func prepareQueryContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}
