// Package redis stores the shop document as a single Redis string value.
package redis

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/botica/internal/storage"
)

var _ storage.Backend = (*DocumentStore)(nil)

// DocumentStore implements storage.Backend over one Redis key. A missing key
// loads as an empty document.
type DocumentStore struct {
	client redis.UniversalClient
	key    string
}

// NewDocumentStore returns a DocumentStore for the given key.
func NewDocumentStore(client redis.UniversalClient, key string) *DocumentStore {
	return &DocumentStore{client: client, key: key}
}

// Connect parses a redis:// URL and returns a client for it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, storage.Unavailable(err, "ping redis")
	}
	return client, nil
}

// Load fetches and decodes the document value.
func (s *DocumentStore) Load(ctx context.Context) (*storage.Document, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			doc := &storage.Document{}
			doc.Normalize()
			return doc, nil
		}
		return nil, storage.Unavailable(err, "get "+s.key)
	}

	doc := &storage.Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, storage.Unavailable(err, "decode "+s.key)
	}
	doc.Normalize()
	return doc, nil
}

// Save replaces the document value. The key never expires.
func (s *DocumentStore) Save(ctx context.Context, doc *storage.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	doc.Normalize()

	raw, err := json.Marshal(doc)
	if err != nil {
		return storage.Unavailable(err, "encode "+s.key)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return storage.Unavailable(err, "set "+s.key)
	}
	return nil
}

// Ping checks server connectivity.
func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return storage.Unavailable(err, "ping redis")
	}
	return nil
}
