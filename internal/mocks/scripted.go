package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/ragassist/internal/serving"
)

// ScriptedResponse is one step of a ScriptedEndpoint.
type ScriptedResponse struct {
	// Response to return
	Response serving.Response

	// Error to return instead of response
	Error error

	// Optional callback to run before returning (for side effects in tests)
	BeforeReturn func(req serving.Request)

	// Delay before returning (simulates endpoint latency)
	Delay time.Duration
}

// ScriptedEndpoint returns its scripts in order, one per call.
type ScriptedEndpoint struct {
	fallback     *ScriptedResponse
	scripts      []ScriptedResponse
	calls        []EndpointCall
	currentIndex int
	mu           sync.Mutex
}

// NewScriptedEndpoint creates an endpoint that plays scripts in order.
func NewScriptedEndpoint(scripts ...ScriptedResponse) *ScriptedEndpoint {
	return &ScriptedEndpoint{scripts: scripts}
}

// AddText appends a bare string answer.
func (s *ScriptedEndpoint) AddText(text string) *ScriptedEndpoint {
	return s.add(ScriptedResponse{Response: serving.Text(text)})
}

// AddStructured appends an object answer.
func (s *ScriptedEndpoint) AddStructured(fields map[string]any) *ScriptedEndpoint {
	return s.add(ScriptedResponse{Response: serving.Structured(fields)})
}

// AddError appends a failure.
func (s *ScriptedEndpoint) AddError(err error) *ScriptedEndpoint {
	return s.add(ScriptedResponse{Error: err})
}

// WithFallback sets what is returned once the scripts run out.
func (s *ScriptedEndpoint) WithFallback(script ScriptedResponse) *ScriptedEndpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = &script
	return s
}

func (s *ScriptedEndpoint) add(script ScriptedResponse) *ScriptedEndpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, script)
	return s
}

// Query implements the Endpoint interface.
func (s *ScriptedEndpoint) Query(ctx context.Context, req serving.Request) (serving.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, EndpointCall{Request: cloneRequest(req), Timestamp: time.Now()})

	var script ScriptedResponse
	switch {
	case s.currentIndex < len(s.scripts):
		script = s.scripts[s.currentIndex]
		s.currentIndex++
	case s.fallback != nil:
		script = *s.fallback
	default:
		s.mu.Unlock()
		return nil, fmt.Errorf("scripted endpoint: no script for call %d", len(s.calls))
	}
	s.mu.Unlock()

	if script.Delay > 0 {
		select {
		case <-time.After(script.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if script.BeforeReturn != nil {
		script.BeforeReturn(req)
	}
	if script.Error != nil {
		return nil, script.Error
	}
	return script.Response, nil
}

// GetCalls returns all recorded calls.
func (s *ScriptedEndpoint) GetCalls() []EndpointCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EndpointCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// Remaining returns how many scripts have not been played.
func (s *ScriptedEndpoint) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scripts) - s.currentIndex
}
