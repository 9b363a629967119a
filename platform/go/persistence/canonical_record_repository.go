package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CanonicalRecordsTable is the unqualified name of the canonical profile bookkeeping table.
const CanonicalRecordsTable = "profile_canonical_records"

// ErrCanonicalRecordNotFound is returned when no record exists for a canonical slug.
var ErrCanonicalRecordNotFound = errors.New("canonical record not found")

// CanonicalRecord tracks that a canonical slug has been reached through a redirect.
type CanonicalRecord struct {
	CanonicalSlug string    `db:"canonical_slug"`
	LastAliasSlug *string   `db:"last_alias_slug"`
	HitCount      int64     `db:"hit_count"`
	FirstSeenAt   time.Time `db:"first_seen_at"`
	LastSeenAt    time.Time `db:"last_seen_at"`
}

// CanonicalRecordStore upserts canonical records.
type CanonicalRecordStore struct {
	pool       *pgxpool.Pool
	tableIdent string
}

// NewCanonicalRecordStore creates a store; assumes BootstrapSchema already created the table in schema.
func NewCanonicalRecordStore(ctx context.Context, pool *pgxpool.Pool, schema string) (*CanonicalRecordStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	schema, err := NormalizeSchemaName(schema)
	if err != nil {
		return nil, err
	}
	return &CanonicalRecordStore{
		pool:       pool,
		tableIdent: pgx.Identifier{schema, CanonicalRecordsTable}.Sanitize(),
	}, nil
}

// Ensure creates the record for canonical if missing, otherwise bumps its hit counter and
// remembers the alias that led to it.
func (s *CanonicalRecordStore) Ensure(ctx context.Context, canonical, alias string, seenAt time.Time) (CanonicalRecord, error) {
	if canonical == "" {
		return CanonicalRecord{}, errors.New("canonical slug is required")
	}
	if seenAt.IsZero() {
		seenAt = time.Now().UTC()
	}

	var lastAlias *string
	if alias != "" {
		lastAlias = &alias
	}

	query := fmt.Sprintf(`
        INSERT INTO %s AS r (canonical_slug, last_alias_slug, hit_count, first_seen_at, last_seen_at)
        VALUES ($1, $2, 1, $3, $3)
        ON CONFLICT (canonical_slug) DO UPDATE SET
            last_alias_slug = COALESCE(EXCLUDED.last_alias_slug, r.last_alias_slug),
            hit_count = r.hit_count + 1,
            last_seen_at = EXCLUDED.last_seen_at
        RETURNING canonical_slug, last_alias_slug, hit_count, first_seen_at, last_seen_at
    `, s.tableIdent)

	rec, err := scanCanonicalRecord(s.pool.QueryRow(ctx, query, canonical, lastAlias, seenAt))
	if err != nil {
		return CanonicalRecord{}, fmt.Errorf("ensure canonical record: %w", err)
	}
	return rec, nil
}

// Get returns the record for canonical.
func (s *CanonicalRecordStore) Get(ctx context.Context, canonical string) (CanonicalRecord, error) {
	query := fmt.Sprintf(`SELECT canonical_slug, last_alias_slug, hit_count, first_seen_at, last_seen_at
        FROM %s WHERE canonical_slug = $1`, s.tableIdent)
	return scanCanonicalRecord(s.pool.QueryRow(ctx, query, canonical))
}

func scanCanonicalRecord(row pgx.Row) (CanonicalRecord, error) {
	var rec CanonicalRecord
	if err := row.Scan(&rec.CanonicalSlug, &rec.LastAliasSlug, &rec.HitCount, &rec.FirstSeenAt, &rec.LastSeenAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CanonicalRecord{}, ErrCanonicalRecordNotFound
		}
		return CanonicalRecord{}, err
	}
	return rec, nil
}
