package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/counseldesk/counsel/internal/auth"
	"github.com/counseldesk/counsel/internal/config"
	"github.com/counseldesk/counsel/pkg/server"
)

const testSecret = "test-user-token-secret"

func newServer(t *testing.T, env map[string]string) *server.Server {
	t.Helper()
	t.Setenv("COUNSEL_DATA_DIR", t.TempDir())
	t.Setenv("COUNSEL_LLM_PROVIDER", "mock")
	for k, v := range env {
		t.Setenv(k, v)
	}

	srv, err := server.NewWithConfig(context.Background(), config.Load())
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}
	t.Cleanup(func() {
		srv.Store.Close()
		srv.ShutdownFunc(context.Background())
	})
	return srv
}

func call(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func userToken(t *testing.T, subject string) map[string]string {
	t.Helper()
	tok, err := auth.GenerateToken([]byte(testSecret), subject, subject+"@example.com", "attorney", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return map[string]string{auth.UserTokenHeader: tok}
}

func TestServer_HealthAndVersion(t *testing.T) {
	srv := newServer(t, map[string]string{"COUNSEL_VERSION": "1.2.3"})

	w := call(t, srv.Handler, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("GET /health = %d %s", w.Code, w.Body.String())
	}
	w = call(t, srv.Handler, http.MethodGet, "/version", "", nil)
	if !strings.Contains(w.Body.String(), "1.2.3") {
		t.Errorf("GET /version = %s", w.Body.String())
	}
	if srv.Model.Name() != "mock" {
		t.Errorf("Model = %s, want mock", srv.Model.Name())
	}
}

func TestServer_GenerateAnswerAnonymous(t *testing.T) {
	srv := newServer(t, nil)

	w := call(t, srv.Handler, http.MethodPost, "/api/v1/ai/generate-answer", `{"message":"hello there"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Success  bool   `json:"success"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || !strings.Contains(body.Response, "hello there") {
		t.Errorf("body = %+v", body)
	}
}

func TestServer_RequireAuth(t *testing.T) {
	srv := newServer(t, map[string]string{
		"COUNSEL_REQUIRE_AUTH": "true",
		"COUNSEL_API_KEYS":     "key-one,key-two",
	})
	draftReq := `{"title":"Demand Letter","prompt":"Draft a demand letter"}`

	if w := call(t, srv.Handler, http.MethodPost, "/api/v1/ai/generate-draft", draftReq, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}
	if w := call(t, srv.Handler, http.MethodPost, "/api/v1/ai/generate-draft", draftReq,
		map[string]string{"X-API-Key": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("bad key status = %d, want 401", w.Code)
	}
	if w := call(t, srv.Handler, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health must stay public, got %d", w.Code)
	}

	w := call(t, srv.Handler, http.MethodPost, "/api/v1/ai/generate-draft", draftReq,
		map[string]string{"Authorization": "Bearer key-two"})
	if w.Code != http.StatusCreated {
		t.Fatalf("authorized status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"owner":"apikey:`) {
		t.Errorf("draft owner not taken from API key identity: %s", w.Body.String())
	}
}

func TestServer_DraftsAreOwnerScoped(t *testing.T) {
	srv := newServer(t, map[string]string{"COUNSEL_SA_SECRET": testSecret})
	alice, bob := userToken(t, "alice"), userToken(t, "bob")

	w := call(t, srv.Handler, http.MethodPost, "/api/v1/ai/generate-draft",
		`{"title":"Lease","prompt":"Draft a residential lease"}`, alice)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var created struct {
		Draft struct {
			ID    string `json:"id"`
			Owner string `json:"owner"`
		} `json:"draft"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Draft.Owner != "alice" {
		t.Errorf("owner = %q, want alice", created.Draft.Owner)
	}

	path := "/api/v1/drafts/" + created.Draft.ID
	if w := call(t, srv.Handler, http.MethodGet, path, "", alice); w.Code != http.StatusOK {
		t.Errorf("owner GET status = %d", w.Code)
	}
	if w := call(t, srv.Handler, http.MethodGet, path, "", bob); w.Code != http.StatusNotFound {
		t.Errorf("non-owner GET status = %d, want 404", w.Code)
	}
	if w := call(t, srv.Handler, http.MethodGet, path+"/export", "", alice); !strings.Contains(w.Body.String(), "<h1>Lease</h1>") {
		t.Errorf("export = %s", w.Body.String())
	}

	w = call(t, srv.Handler, http.MethodGet, "/api/v1/drafts", "", bob)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("bob's drafts = %s, want []", w.Body.String())
	}
}

func TestServer_InvalidConfig(t *testing.T) {
	t.Setenv("COUNSEL_DATA_DIR", t.TempDir())
	t.Setenv("COUNSEL_LLM_PROVIDER", "mock")
	t.Setenv("COUNSEL_TEMPERATURE", "3")

	if _, err := server.NewWithConfig(context.Background(), config.Load()); err == nil {
		t.Error("NewWithConfig() with temperature 3 should fail")
	}
}

func TestServer_MemoryStoreUsesDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COUNSEL_DATA_DIR", dir)
	t.Setenv("COUNSEL_LLM_PROVIDER", "mock")

	srv, err := server.NewWithConfig(context.Background(), config.Load())
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}
	w := call(t, srv.Handler, http.MethodPost, "/api/v1/ai/generate-draft",
		`{"title":"Will","prompt":"Draft a simple will"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	srv.Store.Close()
	srv.ShutdownFunc(context.Background())

	data, err := os.ReadFile(filepath.Join(dir, "data.json"))
	if err != nil {
		t.Fatalf("snapshot not written to COUNSEL_DATA_DIR: %v", err)
	}
	if !strings.Contains(string(data), "Draft a simple will") {
		t.Errorf("snapshot missing draft: %s", data)
	}
}
