// Package snapshot writes decoded catalogs to a blob store and records
// what was written in a manifest.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/JakeFAU/ctr-titledb/internal/hash/sha256"
	"github.com/JakeFAU/ctr-titledb/internal/storage"
)

// ManifestPath is where Finish stores the manifest.
const ManifestPath = "manifest.json"

// Clock supplies the manifest timestamp.
type Clock interface {
	Now() time.Time
}

// Entry describes one stored snapshot.
type Entry struct {
	Path    string `json:"path"`
	URI     string `json:"uri"`
	Source  string `json:"source"`
	Records int    `json:"records"`
	SHA256  string `json:"sha256"`
	Bytes   int    `json:"bytes"`
}

// Manifest lists every snapshot written by one export run.
type Manifest struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Entries     []Entry   `json:"entries"`
}

// Writer stores snapshots and accumulates their manifest entries.
type Writer struct {
	store  storage.BlobStore
	hasher *sha256.Hasher
	clock  Clock
	runID  string

	mu      sync.Mutex
	entries []Entry
}

// NewWriter creates a Writer targeting store.
func NewWriter(store storage.BlobStore, clock Clock, runID string) *Writer {
	return &Writer{
		store:  store,
		hasher: sha256.New(),
		clock:  clock,
		runID:  runID,
	}
}

// Put encodes records as indented JSON and stores them under path.
func (w *Writer) Put(ctx context.Context, source, path string, records any, count int) (Entry, error) {
	body, err := encode(records)
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s: %w", path, err)
	}
	uri, err := w.store.PutObject(ctx, path, "application/json", bytes.NewReader(body))
	if err != nil {
		return Entry{}, fmt.Errorf("store %s: %w", path, err)
	}
	entry := Entry{
		Path:    path,
		URI:     uri,
		Source:  source,
		Records: count,
		SHA256:  w.hasher.Hash(body),
		Bytes:   len(body),
	}
	w.mu.Lock()
	w.entries = append(w.entries, entry)
	w.mu.Unlock()
	return entry, nil
}

// Finish stores the manifest for every Put so far and returns its URI.
func (w *Writer) Finish(ctx context.Context) (string, Manifest, error) {
	w.mu.Lock()
	manifest := Manifest{
		RunID:       w.runID,
		GeneratedAt: w.clock.Now(),
		Entries:     append([]Entry(nil), w.entries...),
	}
	w.mu.Unlock()

	body, err := encode(manifest)
	if err != nil {
		return "", Manifest{}, fmt.Errorf("encode manifest: %w", err)
	}
	uri, err := w.store.PutObject(ctx, ManifestPath, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", Manifest{}, fmt.Errorf("store manifest: %w", err)
	}
	return uri, manifest, nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
