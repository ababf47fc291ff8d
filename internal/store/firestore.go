package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/counseldesk/counsel/pkg/models"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store on Cloud Firestore.
//
// Layout:
//
//	cases/{caseId}
//	clients/{clientId}
//	drafts/{draftId}
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore opens a Firestore client for projectID. Credentials come
// from Application Default Credentials.
func NewFirestoreStore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore: project id is required")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	log.Info().Str("project", projectID).Msg("Firestore store initialized")
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) casesCol() *firestore.CollectionRef   { return s.client.Collection("cases") }
func (s *FirestoreStore) clientsCol() *firestore.CollectionRef { return s.client.Collection("clients") }
func (s *FirestoreStore) draftsCol() *firestore.CollectionRef  { return s.client.Collection("drafts") }

// Ping reads a sentinel document; NotFound still proves connectivity.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	_, err := s.client.Collection("_health").Doc("ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// ── Documents ───────────────────────────────────────────────

type caseDoc struct {
	Name        string    `firestore:"name"`
	Number      string    `firestore:"number"`
	Description string    `firestore:"description"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"created_at"`
}

type clientDoc struct {
	FirstName string    `firestore:"first_name"`
	LastName  string    `firestore:"last_name"`
	Email     string    `firestore:"email"`
	Phone     string    `firestore:"phone"`
	CreatedAt time.Time `firestore:"created_at"`
}

type draftDoc struct {
	Owner        string    `firestore:"owner"`
	Title        string    `firestore:"title"`
	Content      string    `firestore:"content"`
	DraftType    string    `firestore:"draft_type"`
	SourcePrompt string    `firestore:"source_prompt"`
	LinkedCase   string    `firestore:"linked_case"`
	LinkedClient string    `firestore:"linked_client"`
	Status       string    `firestore:"status"`
	CreatedAt    time.Time `firestore:"created_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

func (d draftDoc) toModel(id string) *models.Draft {
	return &models.Draft{
		ID:           id,
		Owner:        d.Owner,
		Title:        d.Title,
		Content:      d.Content,
		DraftType:    d.DraftType,
		SourcePrompt: d.SourcePrompt,
		LinkedCase:   d.LinkedCase,
		LinkedClient: d.LinkedClient,
		Status:       models.DraftStatus(d.Status),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ── Case Store ──────────────────────────────────────────────

func (s *FirestoreStore) GetCase(ctx context.Context, id string) (*models.Case, error) {
	snap, err := s.casesCol().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &ErrNotFound{Entity: "case", Key: id}
		}
		return nil, fmt.Errorf("firestore GetCase: %w", err)
	}

	var doc caseDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetCase decode: %w", err)
	}
	return &models.Case{
		ID:          id,
		Name:        doc.Name,
		Number:      doc.Number,
		Description: doc.Description,
		Status:      doc.Status,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

func (s *FirestoreStore) CreateCase(ctx context.Context, c *models.Case) error {
	if c.ID == "" {
		return fmt.Errorf("case id is required")
	}
	doc := caseDoc{
		Name:        c.Name,
		Number:      c.Number,
		Description: c.Description,
		Status:      c.Status,
		CreatedAt:   createdAt(c.CreatedAt),
	}
	if _, err := s.casesCol().Doc(c.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateCase: %w", err)
	}
	return nil
}

// ── Client Store ────────────────────────────────────────────

func (s *FirestoreStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	snap, err := s.clientsCol().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &ErrNotFound{Entity: "client", Key: id}
		}
		return nil, fmt.Errorf("firestore GetClient: %w", err)
	}

	var doc clientDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetClient decode: %w", err)
	}
	return &models.Client{
		ID:        id,
		FirstName: doc.FirstName,
		LastName:  doc.LastName,
		Email:     doc.Email,
		Phone:     doc.Phone,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (s *FirestoreStore) CreateClient(ctx context.Context, c *models.Client) error {
	if c.ID == "" {
		return fmt.Errorf("client id is required")
	}
	doc := clientDoc{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: createdAt(c.CreatedAt),
	}
	if _, err := s.clientsCol().Doc(c.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateClient: %w", err)
	}
	return nil
}

// ── Draft Store ─────────────────────────────────────────────

// CreateDraft uses Create so an existing id fails instead of overwriting.
func (s *FirestoreStore) CreateDraft(ctx context.Context, d *models.Draft) error {
	doc := draftDoc{
		Owner:        d.Owner,
		Title:        d.Title,
		Content:      d.Content,
		DraftType:    d.DraftType,
		SourcePrompt: d.SourcePrompt,
		LinkedCase:   d.LinkedCase,
		LinkedClient: d.LinkedClient,
		Status:       string(d.Status),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if _, err := s.draftsCol().Doc(d.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateDraft: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	snap, err := s.draftsCol().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &ErrNotFound{Entity: "draft", Key: id}
		}
		return nil, fmt.Errorf("firestore GetDraft: %w", err)
	}

	var doc draftDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetDraft decode: %w", err)
	}
	return doc.toModel(id), nil
}

// ListDrafts requires a composite index on (owner, status, created_at desc)
// when a status filter is given.
func (s *FirestoreStore) ListDrafts(ctx context.Context, owner string, filter models.DraftFilter) ([]models.Draft, error) {
	q := s.draftsCol().Where("owner", "==", owner)
	if filter.Status != "" {
		q = q.Where("status", "==", string(filter.Status))
	}
	q = q.OrderBy("created_at", firestore.Desc).Limit(draftLimit(filter))

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []models.Draft
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("firestore ListDrafts: %w", err)
		}

		var doc draftDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode draftDoc: %w", err)
		}
		out = append(out, *doc.toModel(snap.Ref.ID))
	}
	return out, nil
}
