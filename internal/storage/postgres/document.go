// Package postgres stores the shop document in a PostgreSQL JSONB row.
package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/botica/internal/storage"
)

const (
	loadDocumentSQL = `SELECT body FROM documents WHERE id = $1`

	saveDocumentSQL = `INSERT INTO documents (id, body, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`
)

var _ storage.Backend = (*DocumentStore)(nil)

// DocumentStore implements storage.Backend with one row in the documents
// table. A missing row loads as an empty document.
type DocumentStore struct {
	pool *pgxpool.Pool
	id   string
}

// NewDocumentStore returns a DocumentStore for the row with the given id.
func NewDocumentStore(pool *pgxpool.Pool, id string) *DocumentStore {
	return &DocumentStore{pool: pool, id: id}
}

// Load fetches and decodes the document row.
func (s *DocumentStore) Load(ctx context.Context) (*storage.Document, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, loadDocumentSQL, s.id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			doc := &storage.Document{}
			doc.Normalize()
			return doc, nil
		}
		return nil, storage.Unavailable(err, "query document "+s.id)
	}

	doc := &storage.Document{}
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, storage.Unavailable(err, "decode document "+s.id)
	}
	doc.Normalize()
	return doc, nil
}

// Save upserts the whole document row.
func (s *DocumentStore) Save(ctx context.Context, doc *storage.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	doc.Normalize()

	body, err := json.Marshal(doc)
	if err != nil {
		return storage.Unavailable(err, "encode document "+s.id)
	}

	if _, err := s.pool.Exec(ctx, saveDocumentSQL, s.id, body); err != nil {
		return storage.Unavailable(err, "save document "+s.id)
	}
	return nil
}

// Ping checks database connectivity.
func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return storage.Unavailable(err, "ping database")
	}
	return nil
}
