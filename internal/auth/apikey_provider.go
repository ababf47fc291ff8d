package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/counseldesk/counsel/pkg/contracts"
)

// APIKeyProvider accepts keys from "Authorization: Bearer <key>" or
// "X-API-Key". Every key maps to the same role.
type APIKeyProvider struct {
	keys [][]byte
	role string
}

// NewAPIKeyProvider parses a comma-separated key list. The provider is
// disabled when the list is empty.
func NewAPIKeyProvider(keyList, role string) *APIKeyProvider {
	if role == "" {
		role = "attorney"
	}
	p := &APIKeyProvider{role: role}
	for _, key := range strings.Split(keyList, ",") {
		if key = strings.TrimSpace(key); key != "" {
			p.keys = append(p.keys, []byte(key))
		}
	}
	return p
}

func (p *APIKeyProvider) Name() string  { return "apikey" }
func (p *APIKeyProvider) Enabled() bool { return len(p.keys) > 0 }

// Authenticate returns (nil, nil) when no key is presented and an error
// when the presented key is unknown.
func (p *APIKeyProvider) Authenticate(_ context.Context, r *http.Request) (*contracts.Identity, error) {
	apiKey := extractAPIKey(r)
	if apiKey == "" {
		return nil, nil
	}
	if !p.valid(apiKey) {
		return nil, fmt.Errorf("invalid API key")
	}

	keyHash := fmt.Sprintf("%x", sha256.Sum256([]byte(apiKey)))
	return &contracts.Identity{
		Subject:     "apikey:" + keyHash[:16],
		Provider:    "apikey",
		Role:        p.role,
		DisplayName: "API Key User",
	}, nil
}

func (p *APIKeyProvider) valid(candidate string) bool {
	ok := 0
	for _, key := range p.keys {
		ok |= subtle.ConstantTimeCompare([]byte(candidate), key)
	}
	return ok == 1
}

func extractAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}
