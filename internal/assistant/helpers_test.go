package assistant_test

import (
	"context"
	"sync"
	"testing"

	"github.com/counseldesk/counsel/internal/store"
	"github.com/counseldesk/counsel/pkg/contracts"
	"github.com/counseldesk/counsel/pkg/models"
)

// fakeModel returns canned output and records every call.
type fakeModel struct {
	mu      sync.Mutex
	text    string
	err     error
	nilResp bool
	calls   []fakeCall
}

type fakeCall struct {
	contents []contracts.Content
	cfg      contracts.InvokeConfig
}

func (f *fakeModel) Name() string { return "fake" }

func (f *fakeModel) Invoke(_ context.Context, contents []contracts.Content, cfg contracts.InvokeConfig) (*contracts.ModelResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{contents: append([]contracts.Content(nil), contents...), cfg: cfg})
	if f.err != nil {
		return nil, f.err
	}
	if f.nilResp {
		return nil, nil
	}
	return &contracts.ModelResponse{Text: f.text, FinishReason: "STOP"}, nil
}

func (f *fakeModel) lastCall(t *testing.T) fakeCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("model was never called")
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// newTestStore creates a memory store seeded with one case and one client.
func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s := store.NewMemoryStore(t.TempDir())
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	if err := s.CreateCase(ctx, &models.Case{
		ID:          "case-1",
		Name:        "Smith v. Jones",
		Number:      "CV-2024-001",
		Description: "Breach of lease",
	}); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	if err := s.CreateClient(ctx, &models.Client{
		ID:        "client-1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
	}); err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}
	return s
}
