// Package identity resolves the signed-in user's email from headers set by
// the hosting proxy.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
)

const (
	// EmailHeader is set by the hosting proxy for authenticated users.
	EmailHeader = "X-Forwarded-Email"

	// NotAvailable is shown when no email can be resolved.
	NotAvailable = "Not available"
)

// ErrNoEmail means the request carried no identity header.
var ErrNoEmail = errors.New("no forwarded email header")

// Resolver extracts the user's email from request headers.
type Resolver interface {
	Email(headers http.Header) (string, error)
}

// HeaderResolver reads EmailHeader.
type HeaderResolver struct{}

// Email implements Resolver.
func (HeaderResolver) Email(headers http.Header) (string, error) {
	raw := strings.TrimSpace(headers.Get(EmailHeader))
	if raw == "" {
		return "", ErrNoEmail
	}

	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("invalid %s header: %w", EmailHeader, err)
	}
	return addr.Address, nil
}

// Static always resolves to the same address. The terminal surface uses it.
type Static string

// Email implements Resolver.
func (s Static) Email(http.Header) (string, error) {
	if s == "" {
		return "", ErrNoEmail
	}
	return string(s), nil
}

// Lookup resolves the email and never fails: problems are logged and the
// NotAvailable sentinel is returned instead.
func Lookup(ctx context.Context, resolver Resolver, headers http.Header, logger *slog.Logger) string {
	if resolver == nil {
		return NotAvailable
	}
	if logger == nil {
		logger = slog.Default()
	}

	email, err := resolver.Email(headers)
	switch {
	case errors.Is(err, ErrNoEmail):
		logger.DebugContext(ctx, "No user identity on request")
		return NotAvailable
	case err != nil:
		logger.WarnContext(ctx, "Error getting user info",
			slog.String("component", "identity"),
			slog.Any("error", err))
		return NotAvailable
	case email == "":
		return NotAvailable
	}
	return email
}
