// Package store — in-memory Store implementation.
// Used when no database is configured (local dev, tests).
// Supports file-based snapshot persistence so data survives restarts.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/counseldesk/counsel/pkg/models"
	"github.com/rs/zerolog/log"
)

// snapshot is the JSON-serializable shape written to disk.
type snapshot struct {
	Cases   map[string]*models.Case   `json:"cases"`
	Clients map[string]*models.Client `json:"clients"`
	Drafts  map[string]*models.Draft  `json:"drafts"`
}

// MemoryStore implements Store with in-memory maps.
type MemoryStore struct {
	mu      sync.RWMutex
	cases   map[string]*models.Case   // key: id
	clients map[string]*models.Client // key: id
	drafts  map[string]*models.Draft  // key: id

	// Persistence
	snapshotPath string        // empty = no persistence
	saveMu       sync.Mutex    // guards file writes
	saveCh       chan struct{} // debounce channel
	doneCh       chan struct{} // signals background goroutines to stop
}

// NewMemoryStore creates a new in-memory store that persists a JSON
// snapshot to dataDir/data.json. An empty dataDir means ~/.counsel.
func NewMemoryStore(dataDir string) *MemoryStore {
	m := &MemoryStore{
		cases:   make(map[string]*models.Case),
		clients: make(map[string]*models.Client),
		drafts:  make(map[string]*models.Draft),
		saveCh:  make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
	}

	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			dataDir = filepath.Join(home, ".counsel")
		}
	}
	if dataDir != "" {
		m.snapshotPath = filepath.Join(dataDir, "data.json")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			log.Warn().Err(err).Str("dir", dataDir).Msg("Cannot create data dir, persistence disabled")
			m.snapshotPath = ""
		}
	}

	if m.snapshotPath != "" {
		m.loadSnapshot()
		go m.saveLoop()
	}

	log.Info().Str("snapshot", m.snapshotPath).Msg("Memory store configured")
	return m
}

// requestSave signals the background goroutine to persist data.
// Non-blocking: coalesces multiple rapid writes into one disk flush.
func (m *MemoryStore) requestSave() {
	if m.snapshotPath == "" {
		return
	}
	select {
	case m.saveCh <- struct{}{}:
	default:
		// Already pending
	}
}

// saveLoop debounces save requests (max 1 write per 500ms).
func (m *MemoryStore) saveLoop() {
	for {
		select {
		case <-m.doneCh:
			return
		case <-m.saveCh:
			time.Sleep(500 * time.Millisecond)
			m.saveSnapshot()
		}
	}
}

// saveSnapshot persists all data to disk as JSON.
func (m *MemoryStore) saveSnapshot() {
	m.mu.RLock()
	snap := snapshot{
		Cases:   m.cases,
		Clients: m.clients,
		Drafts:  m.drafts,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	m.mu.RUnlock()

	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal snapshot")
		return
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	// Write to temp file then rename for atomicity
	tmp := m.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.Error().Err(err).Str("path", tmp).Msg("Failed to write snapshot tmp")
		return
	}
	if err := os.Rename(tmp, m.snapshotPath); err != nil {
		log.Error().Err(err).Str("path", m.snapshotPath).Msg("Failed to rename snapshot")
		return
	}

	log.Debug().Str("path", m.snapshotPath).Msg("Snapshot saved")
}

// loadSnapshot reads data from disk on startup.
func (m *MemoryStore) loadSnapshot() {
	data, err := os.ReadFile(m.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", m.snapshotPath).Msg("No snapshot file found, starting fresh")
			return
		}
		log.Warn().Err(err).Str("path", m.snapshotPath).Msg("Failed to read snapshot")
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Error().Err(err).Str("path", m.snapshotPath).Msg("Failed to parse snapshot, starting fresh")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if snap.Cases != nil {
		m.cases = snap.Cases
	}
	if snap.Clients != nil {
		m.clients = snap.Clients
	}
	if snap.Drafts != nil {
		m.drafts = snap.Drafts
	}

	log.Info().
		Int("cases", len(m.cases)).
		Int("clients", len(m.clients)).
		Int("drafts", len(m.drafts)).
		Str("path", m.snapshotPath).
		Msg("Snapshot loaded")
}

// SeedFile is the shape of a seed file for cases and clients.
type SeedFile struct {
	Cases   []models.Case   `json:"cases"`
	Clients []models.Client `json:"clients"`
}

// LoadSeed reads a JSON seed file and inserts its cases and clients into s.
// Existing records with the same ID are overwritten.
func LoadSeed(ctx context.Context, s Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	for i := range seed.Cases {
		if err := s.CreateCase(ctx, &seed.Cases[i]); err != nil {
			return fmt.Errorf("seed case %s: %w", seed.Cases[i].ID, err)
		}
	}
	for i := range seed.Clients {
		if err := s.CreateClient(ctx, &seed.Clients[i]); err != nil {
			return fmt.Errorf("seed client %s: %w", seed.Clients[i].ID, err)
		}
	}
	log.Info().
		Int("cases", len(seed.Cases)).
		Int("clients", len(seed.Clients)).
		Str("path", path).
		Msg("Seed data loaded")
	return nil
}

func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Close stops background goroutines and forces a final snapshot write.
// Safe to call multiple times (second call is a no-op).
func (m *MemoryStore) Close() error {
	select {
	case <-m.doneCh:
		return nil
	default:
		close(m.doneCh)
	}

	if m.snapshotPath != "" {
		log.Info().Msg("Flushing final snapshot before shutdown...")
		m.saveSnapshot()
	}

	log.Info().Msg("Memory store closed")
	return nil
}

// ── Case Store ──────────────────────────────────────────────

func (m *MemoryStore) GetCase(_ context.Context, id string) (*models.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cases[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "case", Key: id}
	}
	copy := *c
	return &copy, nil
}

func (m *MemoryStore) CreateCase(_ context.Context, c *models.Case) error {
	if c.ID == "" {
		return fmt.Errorf("case id is required")
	}
	m.mu.Lock()
	copy := *c
	if copy.CreatedAt.IsZero() {
		copy.CreatedAt = time.Now().UTC()
	}
	m.cases[c.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	return nil
}

// ── Client Store ────────────────────────────────────────────

func (m *MemoryStore) GetClient(_ context.Context, id string) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "client", Key: id}
	}
	copy := *c
	return &copy, nil
}

func (m *MemoryStore) CreateClient(_ context.Context, c *models.Client) error {
	if c.ID == "" {
		return fmt.Errorf("client id is required")
	}
	m.mu.Lock()
	copy := *c
	if copy.CreatedAt.IsZero() {
		copy.CreatedAt = time.Now().UTC()
	}
	m.clients[c.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	return nil
}

// ── Draft Store ─────────────────────────────────────────────

func (m *MemoryStore) CreateDraft(_ context.Context, d *models.Draft) error {
	m.mu.Lock()
	if _, exists := m.drafts[d.ID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("draft %s already exists", d.ID)
	}
	copy := *d
	m.drafts[d.ID] = &copy
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) GetDraft(_ context.Context, id string) (*models.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "draft", Key: id}
	}
	copy := *d
	return &copy, nil
}

// ListDrafts returns the owner's drafts, newest first.
func (m *MemoryStore) ListDrafts(_ context.Context, owner string, filter models.DraftFilter) ([]models.Draft, error) {
	m.mu.RLock()
	var result []models.Draft
	for _, d := range m.drafts {
		if d.Owner != owner {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		result = append(result, *d)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit := draftLimit(filter); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
