// Package store provides the storage interface and implementations for the
// Counsel service: an in-memory store with JSON snapshots, PostgreSQL, and
// Firestore.
package store

import (
	"context"

	"github.com/counseldesk/counsel/pkg/models"
)

// Store is the primary storage interface.
// All handler and service code depends on the narrower interfaces below,
// making it easy to swap between in-memory (tests), PostgreSQL, and
// Firestore implementations.
type Store interface {
	CaseStore
	ClientStore
	DraftStore

	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}

// ── Case Store ──────────────────────────────────────────────

type CaseStore interface {
	GetCase(ctx context.Context, id string) (*models.Case, error)
	CreateCase(ctx context.Context, c *models.Case) error
}

// ── Client Store ────────────────────────────────────────────

type ClientStore interface {
	GetClient(ctx context.Context, id string) (*models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error
}

// ── Draft Store ─────────────────────────────────────────────

// DraftStore persists generated drafts. CreateDraft is a single atomic
// insert; drafts are never read-modify-written by the assistant.
type DraftStore interface {
	CreateDraft(ctx context.Context, d *models.Draft) error
	GetDraft(ctx context.Context, id string) (*models.Draft, error)
	ListDrafts(ctx context.Context, owner string, filter models.DraftFilter) ([]models.Draft, error)
}

// ── Errors ──────────────────────────────────────────────────

// ErrNotFound is returned when a requested entity does not exist.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}

// ── Filter helpers ──────────────────────────────────────────

const defaultDraftLimit = 50

func draftLimit(filter models.DraftFilter) int {
	if filter.Limit <= 0 {
		return defaultDraftLimit
	}
	return filter.Limit
}
