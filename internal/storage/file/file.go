// Package file stores the shop document as a JSON file on local disk.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/botica/internal/storage"
)

var _ storage.Backend = (*Store)(nil)

// Store is a storage.Backend over a single JSON file. Paths ending in ".gz"
// are gzip compressed.
type Store struct {
	path string
}

// New returns a Store for the given path. The file is not touched until the
// first Load, Save or Init.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) compressed() bool {
	return strings.HasSuffix(s.path, ".gz")
}

// Init writes an empty document when the file does not exist yet.
func (s *Store) Init(ctx context.Context) (created bool, err error) {
	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, storage.Unavailable(err, "stat document")
	}

	if err := s.Save(ctx, &storage.Document{}); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads and decodes the whole file.
func (s *Store) Load(_ context.Context) (*storage.Document, error) {
	raw, err := s.read()
	if err != nil {
		return nil, storage.Unavailable(err, "read document")
	}

	doc := &storage.Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, storage.Unavailable(err, "decode document")
	}
	doc.Normalize()
	return doc, nil
}

func (s *Store) read() ([]byte, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if !s.compressed() {
		return io.ReadAll(f)
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()
	return io.ReadAll(gz)
}

// Save encodes the document and replaces the file. The data is written to a
// temporary file in the same directory and renamed over the target.
func (s *Store) Save(_ context.Context, doc *storage.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	doc.Normalize()

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return storage.Unavailable(err, "encode document")
	}

	if err := s.write(raw); err != nil {
		return storage.Unavailable(err, "write document")
	}
	return nil
}

func (s *Store) write(raw []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := encode(tmp, raw, s.compressed()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	return os.Rename(tmpName, s.path)
}

func encode(w io.Writer, raw []byte, compressed bool) error {
	if !compressed {
		_, err := io.Copy(w, bytes.NewReader(raw))
		return err
	}

	gz := pgzip.NewWriter(w)
	if _, err := gz.Write(raw); err != nil {
		_ = gz.Close()
		return errors.Wrap(err, "gzip write")
	}
	return gz.Close()
}

// Ping checks that the file exists and is a regular file.
func (s *Store) Ping(_ context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return storage.Unavailable(err, "stat document")
	}
	if !info.Mode().IsRegular() {
		return storage.Unavailable(errors.Errorf("%s is not a regular file", s.path), "stat document")
	}
	return nil
}
