// Package middleware provides shared context helpers for the Counsel service.
//
// This package lives in pkg/ so that embedding services can read the
// authenticated identity in their own middleware.
package middleware

import (
	"context"

	"github.com/counseldesk/counsel/pkg/contracts"
)

type contextKey string

const identityKey contextKey = "identity"

// SetIdentity stores the authenticated Identity in the context.
// Called by the auth middleware after successful authentication.
func SetIdentity(ctx context.Context, identity *contracts.Identity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity retrieves the authenticated Identity from the context.
// Returns nil if no identity is set (anonymous/unauthenticated request).
func GetIdentity(ctx context.Context) *contracts.Identity {
	if v, ok := ctx.Value(identityKey).(*contracts.Identity); ok {
		return v
	}
	return nil
}

// Owner returns the subject that owns resources created by this request,
// falling back to contracts.AnonymousSubject.
func Owner(ctx context.Context) string {
	if id := GetIdentity(ctx); id != nil && id.Subject != "" {
		return id.Subject
	}
	return contracts.AnonymousSubject
}
