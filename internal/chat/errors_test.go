package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/ragassist/internal/serving"
)

func TestClassifyError(t *testing.T) {
	r := NewErrorRecovery()

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "nil", err: nil, want: ErrorTypeUnknown},
		{name: "canceled", err: fmt.Errorf("wrapped: %w", context.Canceled), want: ErrorTypeCancelled},
		{name: "deadline", err: fmt.Errorf("endpoint query timed out: %w", context.DeadlineExceeded), want: ErrorTypeTimeout},
		{name: "authentication", err: &serving.AuthenticationError{Message: "invalid token"}, want: ErrorTypeAuthentication},
		{name: "malformed", err: fmt.Errorf("%w: empty body", serving.ErrMalformedResponse), want: ErrorTypeMalformed},
		{name: "throttled by status", err: &serving.EndpointError{StatusCode: 429, Message: "slow down"}, want: ErrorTypeRateLimit},
		{name: "throttled by code", err: &serving.EndpointError{StatusCode: 400, Code: "REQUEST_LIMIT_EXCEEDED"}, want: ErrorTypeRateLimit},
		{name: "endpoint", err: &serving.EndpointError{StatusCode: 500, Message: "internal"}, want: ErrorTypeEndpoint},
		{name: "network", err: errors.New("network error calling endpoint: dial tcp"), want: ErrorTypeNetwork},
		{name: "unknown", err: errors.New("something odd"), want: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ClassifyError(tt.err))
			assert.NotEmpty(t, r.GenerateUserMessage(tt.err))
		})
	}
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "timeout", ErrorTypeTimeout.String())
	assert.Equal(t, "malformed_response", ErrorTypeMalformed.String())
	assert.Equal(t, "unknown", ErrorType(99).String())
}

func TestTurnErrorUnwrap(t *testing.T) {
	cause := &serving.EndpointError{StatusCode: 503, Message: "unavailable"}
	err := fmt.Errorf("pass: %w", &TurnError{Err: cause})

	turnErr, ok := AsTurnError(err)
	assert.True(t, ok)
	assert.Same(t, cause, errors.Unwrap(turnErr))

	var epErr *serving.EndpointError
	assert.ErrorAs(t, err, &epErr)

	_, ok = AsTurnError(errors.New("plain"))
	assert.False(t, ok)
}
