package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/counseldesk/counsel/pkg/contracts"
	pkgmw "github.com/counseldesk/counsel/pkg/middleware"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AuthMiddleware authenticates requests through the provider chain and
// stores the resulting Identity in the request context.
type AuthMiddleware struct {
	chain       contracts.AuthProviderChain
	requireAuth bool
}

// NewAuthMiddleware creates the auth middleware. When requireAuth is false,
// anonymous requests pass through and act as contracts.AnonymousSubject.
func NewAuthMiddleware(chain contracts.AuthProviderChain, requireAuth bool) *AuthMiddleware {
	return &AuthMiddleware{chain: chain, requireAuth: requireAuth}
}

// Handler returns the HTTP handler middleware that authenticates requests.
func (am *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := am.chain.Authenticate(r.Context(), r)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("Authentication failed")
			unauthorized(w, err.Error())
			return
		}
		if identity == nil && am.requireAuth {
			unauthorized(w, "authentication required: set Authorization: Bearer <key>, X-API-Key, or X-Service-Token")
			return
		}

		ctx := pkgmw.SetIdentity(r.Context(), identity)
		provider := "anonymous"
		if identity != nil {
			provider = identity.Provider
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("counsel.owner", pkgmw.Owner(ctx)),
			attribute.String("counsel.auth_provider", provider),
		)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="counsel"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func isPublicPath(path string) bool {
	switch path {
	case "/health", "/version":
		return true
	}
	return false
}
