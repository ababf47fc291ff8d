package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/counseldesk/counsel/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PostgresStore implements Store on PostgreSQL.
// Connection URL is read from DATABASE_URL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings, and creates the required tables if they
// don't exist.
func NewPostgresStore(ctx context.Context, connURL string, maxConns int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}

	log.Info().Int32("max_conns", cfg.MaxConns).Msg("PostgreSQL store initialized")
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS cases (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			number      TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS clients (
			id          TEXT PRIMARY KEY,
			first_name  TEXT NOT NULL DEFAULT '',
			last_name   TEXT NOT NULL DEFAULT '',
			email       TEXT NOT NULL DEFAULT '',
			phone       TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS drafts (
			id            TEXT PRIMARY KEY,
			owner         TEXT NOT NULL,
			title         TEXT NOT NULL,
			content       TEXT NOT NULL,
			draft_type    TEXT NOT NULL DEFAULT '',
			source_prompt TEXT NOT NULL,
			linked_case   TEXT NOT NULL DEFAULT '',
			linked_client TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_drafts_owner ON drafts (owner, created_at DESC);
	`
	_, err := s.pool.Exec(ctx, ddl)
	return err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// ── Case Store ──────────────────────────────────────────────

func (s *PostgresStore) GetCase(ctx context.Context, id string) (*models.Case, error) {
	var c models.Case
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, number, description, status, created_at FROM cases WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Number, &c.Description, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{Entity: "case", Key: id}
		}
		return nil, fmt.Errorf("get case: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateCase(ctx context.Context, c *models.Case) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cases (id, name, number, description, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			number = EXCLUDED.number,
			description = EXCLUDED.description,
			status = EXCLUDED.status`,
		c.ID, c.Name, c.Number, c.Description, c.Status, createdAt(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

// ── Client Store ────────────────────────────────────────────

func (s *PostgresStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var c models.Client
	err := s.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, phone, created_at FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{Entity: "client", Key: id}
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateClient(ctx context.Context, c *models.Client) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO clients (id, first_name, last_name, email, phone, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone`,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, createdAt(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// ── Draft Store ─────────────────────────────────────────────

const draftColumns = `id, owner, title, content, draft_type, source_prompt,
	linked_case, linked_client, status, created_at, updated_at`

func (s *PostgresStore) CreateDraft(ctx context.Context, d *models.Draft) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO drafts (`+draftColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.Owner, d.Title, d.Content, d.DraftType, d.SourcePrompt,
		d.LinkedCase, d.LinkedClient, string(d.Status), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, id)
	d, err := scanDraft(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{Entity: "draft", Key: id}
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListDrafts(ctx context.Context, owner string, filter models.DraftFilter) ([]models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE owner = $1`
	args := []interface{}{owner}
	argIdx := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIdx)
	args = append(args, draftLimit(filter))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var result []models.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func scanDraft(row pgx.Row) (*models.Draft, error) {
	var d models.Draft
	var status string
	err := row.Scan(&d.ID, &d.Owner, &d.Title, &d.Content, &d.DraftType, &d.SourcePrompt,
		&d.LinkedCase, &d.LinkedClient, &status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = models.DraftStatus(status)
	return &d, nil
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
