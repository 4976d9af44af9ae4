// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/Veraticus/ragassist/internal/identity"
	"github.com/Veraticus/ragassist/internal/serving"
)

// Compile-time checks to ensure mocks implement their interfaces.
var (
	_ serving.Endpoint  = (*MockEndpoint)(nil)
	_ serving.Endpoint  = (*ScriptedEndpoint)(nil)
	_ identity.Resolver = (*MockResolver)(nil)
)

// EndpointCall records a call to an endpoint.
type EndpointCall struct {
	Timestamp time.Time
	Request   serving.Request
}

// MockEndpoint is a test implementation of the Endpoint interface.
type MockEndpoint struct {
	err      error
	response serving.Response
	calls    []EndpointCall
	mu       sync.Mutex

	// QueryFunc allows tests to provide custom query behavior
	QueryFunc func(ctx context.Context, req serving.Request) (serving.Response, error)
}

// NewMockEndpoint creates a new mock endpoint.
func NewMockEndpoint() *MockEndpoint {
	return &MockEndpoint{
		calls: make([]EndpointCall, 0),
	}
}

// Query implements the Endpoint interface. Without a configured response it
// echoes the last message back as text.
func (m *MockEndpoint) Query(ctx context.Context, req serving.Request) (serving.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, EndpointCall{
		Request:   cloneRequest(req),
		Timestamp: time.Now(),
	})
	queryFunc, err, response := m.QueryFunc, m.err, m.response
	m.mu.Unlock()

	if queryFunc != nil {
		return queryFunc(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	if response != nil {
		return response, nil
	}

	last := ""
	if len(req.Messages) > 0 {
		last = req.Messages[len(req.Messages)-1].Content
	}
	return serving.Text("Mock response for: " + last), nil
}

// SetResponse sets the response returned on all queries.
func (m *MockEndpoint) SetResponse(response serving.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
}

// SetError sets an error to be returned on all queries.
func (m *MockEndpoint) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetCalls returns all recorded calls.
func (m *MockEndpoint) GetCalls() []EndpointCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

func cloneRequest(req serving.Request) serving.Request {
	req.Messages = slices.Clone(req.Messages)
	return req
}

// MockResolver is a test implementation of the identity Resolver interface.
type MockResolver struct {
	Err     error
	Address string
}

// Email implements the Resolver interface.
func (m *MockResolver) Email(http.Header) (string, error) {
	return m.Address, m.Err
}
