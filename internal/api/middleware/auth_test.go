package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/counseldesk/counsel/internal/api/middleware"
	"github.com/counseldesk/counsel/internal/auth"
	pkgmw "github.com/counseldesk/counsel/pkg/middleware"
)

// ownerEcho writes the resolved owner as the response body.
var ownerEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(pkgmw.Owner(r.Context())))
})

func serve(h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAuth_AnonymousAllowed(t *testing.T) {
	chain := auth.NewProviderChain(auth.NewAPIKeyProvider("", ""))
	h := middleware.NewAuthMiddleware(chain, false).Handler(ownerEcho)

	w := serve(h, "/api/v1/ai/generate-answer", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "anonymous" {
		t.Errorf("owner = %q, want anonymous", w.Body.String())
	}
}

func TestAuth_APIKey(t *testing.T) {
	chain := auth.NewProviderChain(auth.NewAPIKeyProvider("key-1, key-2", "paralegal"))
	h := middleware.NewAuthMiddleware(chain, true).Handler(ownerEcho)

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"bearer", map[string]string{"Authorization": "Bearer key-1"}, http.StatusOK},
		{"x-api-key", map[string]string{"X-API-Key": "key-2"}, http.StatusOK},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"no key", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, "/api/v1/drafts", tt.headers)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAuth_PublicPaths(t *testing.T) {
	chain := auth.NewProviderChain(auth.NewAPIKeyProvider("key-1", ""))
	h := middleware.NewAuthMiddleware(chain, true).Handler(ownerEcho)

	for _, path := range []string{"/health", "/version"} {
		if w := serve(h, path, nil); w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200 without credentials", path, w.Code)
		}
	}
}

func TestAuth_UserTokenOwner(t *testing.T) {
	secret := []byte("s3cret")
	chain := auth.NewProviderChain(
		auth.NewAPIKeyProvider("key-1", ""),
		auth.NewUserTokenProvider(string(secret)),
	)
	h := middleware.NewAuthMiddleware(chain, true).Handler(ownerEcho)

	token, err := auth.GenerateToken(secret, "jdoe", "jdoe@firm.example", "attorney", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	w := serve(h, "/api/v1/ai/generate-draft", map[string]string{auth.UserTokenHeader: token})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "jdoe" {
		t.Errorf("owner = %q, want token subject", w.Body.String())
	}

	forged, _ := auth.GenerateToken([]byte("other"), "jdoe", "", "attorney", time.Hour)
	if w := serve(h, "/api/v1/drafts", map[string]string{auth.UserTokenHeader: forged}); w.Code != http.StatusUnauthorized {
		t.Errorf("forged token status = %d, want 401", w.Code)
	}

	expired, _ := auth.GenerateToken(secret, "jdoe", "", "attorney", -time.Minute)
	if w := serve(h, "/api/v1/drafts", map[string]string{auth.UserTokenHeader: expired}); w.Code != http.StatusUnauthorized {
		t.Errorf("expired token status = %d, want 401", w.Code)
	}
}
