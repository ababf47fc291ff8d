// Package contracts — Authentication interfaces for the pluggable auth layer.
//
// The service ships API key and signed user-token providers. Additional
// providers (OIDC, SAML) plug into the same chain without handler changes.
package contracts

import (
	"context"
	"net/http"
	"time"
)

// ── Identity ────────────────────────────────────────────────

// AnonymousSubject is the owner recorded for unauthenticated callers when
// authentication is not required.
const AnonymousSubject = "anonymous"

// Identity represents an authenticated user or service.
// Produced by an AuthProvider, consumed by handlers to attribute drafts.
//
// No handler ever knows whether the user came from an API key or a signed
// token.
type Identity struct {
	// Subject is the unique identifier (user ID or API key hash).
	// It is recorded as the owner of generated drafts.
	Subject string `json:"subject"`

	// Email is the user's email address (may be empty for API keys).
	Email string `json:"email,omitempty"`

	// DisplayName is a human-readable name.
	DisplayName string `json:"display_name,omitempty"`

	// Provider identifies which auth provider authenticated this identity.
	// Values: "apikey", "user_token"
	Provider string `json:"provider"`

	// Role is the practice role ("attorney", "paralegal", "admin").
	Role string `json:"role"`

	// ExpiresAt is when this identity's session expires.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// ── AuthProvider ────────────────────────────────────────────

// AuthProvider authenticates an HTTP request and returns an Identity.
// Each provider implements one authentication strategy.
//
// The chain pattern:
//   - Return (*Identity, nil) → authenticated, stop chain
//   - Return (nil, nil) → this provider doesn't handle this request, try next
//   - Return (nil, error) → authentication was attempted but failed, reject
type AuthProvider interface {
	// Name returns the provider identifier (e.g. "apikey", "user_token").
	Name() string

	// Authenticate inspects the request and returns an Identity.
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)

	// Enabled returns whether this provider is configured and active.
	Enabled() bool
}

// ── AuthProviderChain ───────────────────────────────────────

// AuthProviderChain tries providers in priority order until one returns an Identity.
type AuthProviderChain interface {
	// Authenticate walks the chain of providers in order.
	// Returns the first successful Identity, or (nil, nil) if no provider matched.
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)

	// RegisterProvider adds a provider to the end of the chain.
	RegisterProvider(provider AuthProvider)
}
