package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// SnapshotRecord is one line of an edge-log export.
type SnapshotRecord struct {
	FromSlug  string    `json:"fromSlug"`
	ToSlug    string    `json:"toSlug"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// Exporter persists a snapshot under name and returns where it landed.
type Exporter interface {
	Export(ctx context.Context, name string, records []SnapshotRecord) (string, error)
}

// SnapshotName returns the object name used for an export taken at now.
func SnapshotName(now time.Time) string {
	return fmt.Sprintf("slug-aliases-%s.ndjson", now.UTC().Format("20060102T150405Z"))
}

// WriteNDJSON encodes records one JSON document per line, in the given order.
func WriteNDJSON(w io.Writer, records []SnapshotRecord) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadNDJSON decodes a snapshot written by WriteNDJSON.
func ReadNDJSON(r io.Reader) ([]SnapshotRecord, error) {
	dec := json.NewDecoder(r)
	var out []SnapshotRecord
	for dec.More() {
		var rec SnapshotRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// LocalExporter writes snapshots into a directory on the local filesystem.
type LocalExporter struct {
	Dir string
}

func NewLocalExporter(dir string) *LocalExporter {
	return &LocalExporter{Dir: dir}
}

func (e *LocalExporter) Export(ctx context.Context, name string, records []SnapshotRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(e.Dir, name)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}

	if err := WriteNDJSON(f, records); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("publish snapshot: %w", err)
	}
	return path, nil
}

var _ Exporter = (*LocalExporter)(nil)
