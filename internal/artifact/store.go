// Package artifact implements the off-context payload store (spec.md §3,
// §4.4): large tool outputs (full-page HTML, base64 screenshots, HAR
// exports) are written here and replaced in the tool result by a small
// {artifact_id, size, kind} pointer, keeping JSON-RPC responses bounded.
//
// Grounded on the teacher's internal/session/store.go persistence shape,
// generalized from chat-session JSON blobs to typed binary/JSON artifacts,
// with a modernc.org/sqlite-backed index for artifact_list/export — the
// driver other_examples' manifests use for embedded indexing without cgo.
package artifact

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Kind classifies a stored artifact's payload.
type Kind string

const (
	KindJSON  Kind = "json"
	KindImage Kind = "image"
	KindText  Kind = "text"
	KindHAR   Kind = "har"
)

// Meta is the bounded pointer a tool result carries in place of a payload.
type Meta struct {
	ID        string    `json:"artifact_id"`
	Kind      Kind      `json:"kind"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	Label     string    `json:"label,omitempty"`
}

// Store persists artifact payloads under dir, and indexes their metadata in
// a SQLite database for artifact_list/export queries (spec.md §4.4).
type Store struct {
	mu  sync.Mutex
	dir string
	db  *sql.DB
}

// Open creates (if needed) dir and its index.db, ready for Put/Get.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("artifact: mkdir %s: %w", dir, err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("artifact: open index: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	label TEXT,
	created_at DATETIME NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("artifact: migrate index: %w", err)
	}
	return &Store{dir: dir, db: db}, nil
}

// Close releases the index database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) payloadPath(id string) string {
	return filepath.Join(s.dir, id+".bin")
}

// PutJSON stores an arbitrary JSON-serializable payload and returns its Meta
// (the artifact_put_json tool, spec.md §4.4).
func (s *Store) PutJSON(ctx context.Context, data []byte, label string) (Meta, error) {
	return s.put(ctx, KindJSON, data, label)
}

// PutImageB64 decodes a base64-encoded image payload and stores the raw
// bytes (artifact_put_image, spec.md §4.4). The caller-supplied encoding is
// validated before anything touches disk.
func (s *Store) PutImageB64(ctx context.Context, b64 string, label string) (Meta, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Meta{}, fmt.Errorf("artifact: invalid base64 image payload: %w", err)
	}
	return s.put(ctx, KindImage, raw, label)
}

// PutText stores a plain-text payload (e.g. extracted page content).
func (s *Store) PutText(ctx context.Context, text string, label string) (Meta, error) {
	return s.put(ctx, KindText, []byte(text), label)
}

func (s *Store) put(ctx context.Context, kind Kind, data []byte, label string) (Meta, error) {
	id := uuid.NewString()
	if err := os.WriteFile(s.payloadPath(id), data, 0o600); err != nil {
		return Meta{}, fmt.Errorf("artifact: write payload: %w", err)
	}

	meta := Meta{ID: id, Kind: kind, SizeBytes: len(data), CreatedAt: time.Now(), Label: label}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, kind, size_bytes, label, created_at) VALUES (?, ?, ?, ?, ?)`,
		meta.ID, string(meta.Kind), meta.SizeBytes, meta.Label, meta.CreatedAt)
	if err != nil {
		os.Remove(s.payloadPath(id))
		return Meta{}, fmt.Errorf("artifact: index insert: %w", err)
	}
	return meta, nil
}

// Get returns the raw payload bytes and Meta for id.
func (s *Store) Get(ctx context.Context, id string) ([]byte, Meta, error) {
	meta, err := s.statMeta(ctx, id)
	if err != nil {
		return nil, Meta{}, err
	}
	data, err := os.ReadFile(s.payloadPath(id))
	if err != nil {
		return nil, Meta{}, fmt.Errorf("artifact: read payload %s: %w", id, err)
	}
	return data, meta, nil
}

func (s *Store) statMeta(ctx context.Context, id string) (Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, size_bytes, label, created_at FROM artifacts WHERE id = ?`, id)
	var m Meta
	var kind string
	if err := row.Scan(&m.ID, &kind, &m.SizeBytes, &m.Label, &m.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Meta{}, fmt.Errorf("artifact: %s not found", id)
		}
		return Meta{}, fmt.Errorf("artifact: stat %s: %w", id, err)
	}
	m.Kind = Kind(kind)
	return m, nil
}

// Delete removes id's payload and index row.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("artifact: delete index row %s: %w", id, err)
	}
	if err := os.Remove(s.payloadPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("artifact: delete payload %s: %w", id, err)
	}
	return nil
}

// List returns every artifact's Meta, newest first (artifact_list).
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, size_bytes, label, created_at FROM artifacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("artifact: list: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		var kind string
		if err := rows.Scan(&m.ID, &kind, &m.SizeBytes, &m.Label, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("artifact: scan: %w", err)
		}
		m.Kind = Kind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Export copies id's payload to destPath, for artifact_export (spec.md
// §4.4) to hand a large artifact back out as a file the caller can read
// directly rather than round-tripping it through JSON-RPC.
func (s *Store) Export(ctx context.Context, id, destPath string) error {
	data, _, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o700); err != nil {
		return fmt.Errorf("artifact: mkdir for export: %w", err)
	}
	return os.WriteFile(destPath, data, 0o600)
}
