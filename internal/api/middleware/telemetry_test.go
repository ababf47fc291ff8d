package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/counseldesk/counsel/internal/api/middleware"
	"github.com/counseldesk/counsel/internal/auth"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTelemetry_ServerSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { tp.Shutdown(t.Context()) })

	secret := []byte("span-secret")
	chain := auth.NewProviderChain(auth.NewUserTokenProvider(string(secret)))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Telemetry)
	r.Use(middleware.NewAuthMiddleware(chain, false).Handler)
	r.Get("/api/v1/drafts/{draftId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	tok, err := auth.GenerateToken(secret, "alice", "alice@example.com", "attorney", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/d-123", nil)
	req.Header.Set(auth.UserTokenHeader, tok)
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "GET /api/v1/drafts/{draftId}" {
		t.Errorf("span name = %q, want route pattern", span.Name())
	}

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs["counsel.owner"].AsString(); got != "alice" {
		t.Errorf("counsel.owner = %q, want alice", got)
	}
	if got := attrs["counsel.auth_provider"].AsString(); got != "user_token" {
		t.Errorf("counsel.auth_provider = %q, want user_token", got)
	}
	if attrs["counsel.request_id"].AsString() == "" {
		t.Error("counsel.request_id not set")
	}
	if got := attrs["http.response.status_code"].AsInt64(); got != 500 {
		t.Errorf("status attribute = %d, want 500", got)
	}
	if span.Status().Code.String() != "Error" {
		t.Errorf("span status = %v, want Error", span.Status().Code)
	}
}
