package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSExporter uploads snapshots to a Cloud Storage bucket under an optional prefix.
type GCSExporter struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSExporter(client *storage.Client, bucket, prefix string) *GCSExporter {
	if client == nil {
		panic("storage client is required")
	}
	return &GCSExporter{client: client, bucket: bucket, prefix: prefix}
}

func (e *GCSExporter) Export(ctx context.Context, name string, records []SnapshotRecord) (string, error) {
	loc, err := ResolveObjectLocation(e.bucket, e.prefix, name)
	if err != nil {
		return "", err
	}

	w := e.client.Bucket(loc.Bucket).Object(loc.FullPath).NewWriter(ctx)
	w.ContentType = "application/x-ndjson"

	if err := WriteNDJSON(w, records); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize snapshot upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", loc.Bucket, loc.FullPath), nil
}

// List returns the object names of existing snapshots under the exporter prefix, oldest first.
func (e *GCSExporter) List(ctx context.Context) ([]string, error) {
	loc, err := ResolveObjectLocation(e.bucket, e.prefix, "_")
	if err != nil {
		return nil, err
	}
	prefix := loc.FullPath[:len(loc.FullPath)-1]

	it := e.client.Bucket(loc.Bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		names = append(names, attrs.Name)
	}
	sort.Strings(names)
	return names, nil
}

var _ Exporter = (*GCSExporter)(nil)
