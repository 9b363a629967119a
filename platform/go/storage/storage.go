package storage

import (
	"fmt"
	"strings"
)

// ObjectLocation describes where a blob should live.
type ObjectLocation struct {
	Bucket   string
	FullPath string
}

// ResolveObjectLocation combines a deployment prefix and logical key into a bucket/path pair.
//   - bucket must come from deployment configuration (one bucket per environment class).
//   - prefix is optional (e.g. "dev/slug-aliases"); a trailing slash is added when missing.
//   - logicalKey is prefix-relative, such as "slug-aliases-20261019T120000Z.ndjson".
func ResolveObjectLocation(bucket, prefix, logicalKey string) (ObjectLocation, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ObjectLocation{}, fmt.Errorf("bucket is required")
	}
	key := strings.TrimSpace(logicalKey)
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return ObjectLocation{}, fmt.Errorf("logical key is required")
	}

	prefix = strings.TrimPrefix(strings.TrimSpace(prefix), "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return ObjectLocation{Bucket: bucket, FullPath: prefix + key}, nil
}
