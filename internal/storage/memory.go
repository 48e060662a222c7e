package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-faster/errors"
)

var _ Backend = (*Memory)(nil)

// Memory keeps the document serialized in process memory. Every Load decodes
// a fresh copy and every Save replaces the stored bytes, matching the
// whole-document semantics of the durable backends.
type Memory struct {
	mu    sync.Mutex
	raw   []byte
	saves int
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns a copy of the stored document.
func (m *Memory) Load(_ context.Context) (*Document, error) {
	m.mu.Lock()
	raw := m.raw
	m.mu.Unlock()

	doc := &Document{}
	if raw != nil {
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, Unavailable(err, "decode document")
		}
	}
	doc.Normalize()
	return doc, nil
}

// Save replaces the stored document.
func (m *Memory) Save(_ context.Context, doc *Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	doc.Normalize()
	raw, err := json.Marshal(doc)
	if err != nil {
		return Unavailable(err, "encode document")
	}

	m.mu.Lock()
	m.raw = raw
	m.saves++
	m.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Saves returns how many times Save has succeeded.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
