package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/ragassist/internal/serving"
)

// ErrRateLimited is the cause of a question refused by the session limiter.
var ErrRateLimited = errors.New("question rate limit exceeded")

// ErrorType represents the type of error for user-friendly message generation.
type ErrorType int

const (
	// ErrorTypeUnknown represents an unknown error type.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeCancelled represents a canceled request.
	ErrorTypeCancelled
	// ErrorTypeTimeout represents a timeout error.
	ErrorTypeTimeout
	// ErrorTypeAuthentication represents rejected endpoint credentials.
	ErrorTypeAuthentication
	// ErrorTypeRateLimit represents a throttled request.
	ErrorTypeRateLimit
	// ErrorTypeNetwork represents a transport failure.
	ErrorTypeNetwork
	// ErrorTypeMalformed represents a response that could not be decoded.
	ErrorTypeMalformed
	// ErrorTypeEndpoint represents an error reported by the endpoint.
	ErrorTypeEndpoint
)

// String returns a short label used in logs.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeCancelled:
		return "canceled"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeMalformed:
		return "malformed_response"
	case ErrorTypeEndpoint:
		return "endpoint"
	case ErrorTypeUnknown:
		return "unknown"
	}
	return "unknown"
}

// ErrorRecovery turns endpoint failures into messages a user can act on.
type ErrorRecovery struct {
	defaultMessages map[ErrorType]string
}

// NewErrorRecovery creates a new error recovery handler.
func NewErrorRecovery() *ErrorRecovery {
	return &ErrorRecovery{
		defaultMessages: map[ErrorType]string{
			ErrorTypeCancelled:      "The request was canceled before the assistant answered.",
			ErrorTypeTimeout:        "The assistant took too long to answer. Please send your question again.",
			ErrorTypeAuthentication: "The serving endpoint rejected this app's credentials. Please contact your administrator.",
			ErrorTypeRateLimit:      "The serving endpoint is busy right now. Please try again in a few moments.",
			ErrorTypeNetwork:        "The serving endpoint could not be reached. Please try again in a moment.",
			ErrorTypeMalformed:      "The serving endpoint returned a response that could not be read.",
			ErrorTypeEndpoint:       "The serving endpoint reported an error while answering.",
			ErrorTypeUnknown:        "Something went wrong while getting an answer. Please try again.",
		},
	}
}

// ClassifyError determines the type of error for appropriate user messaging.
func (r *ErrorRecovery) ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	if errors.Is(err, context.Canceled) {
		return ErrorTypeCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	if errors.Is(err, ErrRateLimited) {
		return ErrorTypeRateLimit
	}
	if serving.IsAuthenticationError(err) {
		return ErrorTypeAuthentication
	}
	if errors.Is(err, serving.ErrMalformedResponse) {
		return ErrorTypeMalformed
	}

	var epErr *serving.EndpointError
	if errors.As(err, &epErr) {
		if epErr.IsRateLimited() {
			return ErrorTypeRateLimit
		}
		return ErrorTypeEndpoint
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "too many requests"):
		return ErrorTypeRateLimit
	case strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection refused"):
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}

// GenerateUserMessage creates a user-friendly error message based on the error type.
func (r *ErrorRecovery) GenerateUserMessage(err error) string {
	return r.defaultMessages[r.ClassifyError(err)]
}

// TurnError reports a turn that got no answer. The user's message stays in
// the log; nothing was appended for the assistant.
type TurnError struct {
	Err     error
	Summary string
	Prompt  string
	Type    ErrorType
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	return fmt.Sprintf("Error getting response from endpoint: %v", e.Err)
}

// Unwrap returns the underlying endpoint failure.
func (e *TurnError) Unwrap() error {
	return e.Err
}

// AsTurnError extracts a TurnError from err.
func AsTurnError(err error) (*TurnError, bool) {
	var turnErr *TurnError
	if errors.As(err, &turnErr) {
		return turnErr, true
	}
	return nil, false
}
