package serving

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when the endpoint answers with a body that
// cannot be decoded into a response.
var ErrMalformedResponse = errors.New("malformed endpoint response")

// AuthenticationError represents rejected credentials.
type AuthenticationError struct {
	Message string
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return e.Message
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// EndpointError is an error reported by the endpoint itself.
type EndpointError struct {
	Code       string
	Message    string
	StatusCode int
}

// Error implements the error interface.
func (e *EndpointError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("endpoint returned %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("endpoint returned %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited reports whether the endpoint throttled the request.
func (e *EndpointError) IsRateLimited() bool {
	return e.StatusCode == 429 || e.Code == "REQUEST_LIMIT_EXCEEDED"
}
