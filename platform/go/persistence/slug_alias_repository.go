package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SlugAliasesTable is the unqualified name of the append-only redirect log.
const SlugAliasesTable = "slug_aliases"

// SlugAliasRecord is one row of the redirect log. Seq reflects commit order and is the
// ordering used for last-write-wins folding.
type SlugAliasRecord struct {
	Seq       int64     `db:"seq"`
	AliasID   uuid.UUID `db:"alias_id"`
	FromSlug  string    `db:"from_slug"`
	ToSlug    string    `db:"to_slug"`
	CreatedAt time.Time `db:"created_at"`
	CreatedBy string    `db:"created_by"`
}

// AppendSlugAliasParams captures the values required to append a redirect edge.
type AppendSlugAliasParams struct {
	FromSlug  string
	ToSlug    string
	CreatedAt time.Time
	CreatedBy string
}

// SlugAliasStore reads and appends rows of the redirect log. It never updates or deletes rows.
type SlugAliasStore struct {
	pool       *pgxpool.Pool
	tableIdent string
}

// NewSlugAliasStore creates a store; assumes BootstrapSchema already created the table in schema.
func NewSlugAliasStore(ctx context.Context, pool *pgxpool.Pool, schema string) (*SlugAliasStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	schema, err := NormalizeSchemaName(schema)
	if err != nil {
		return nil, err
	}

	return &SlugAliasStore{
		pool:       pool,
		tableIdent: pgx.Identifier{schema, SlugAliasesTable}.Sanitize(),
	}, nil
}

// ListAll returns every row in commit order (oldest first).
func (s *SlugAliasStore) ListAll(ctx context.Context) ([]SlugAliasRecord, error) {
	query := fmt.Sprintf(`SELECT seq, alias_id, from_slug, to_slug, created_at, created_by
        FROM %s
        ORDER BY seq ASC`, s.tableIdent)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query slug aliases: %w", err)
	}
	defer rows.Close()

	var records []SlugAliasRecord
	for rows.Next() {
		rec, err := scanSlugAliasRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slug aliases: %w", err)
	}

	return records, nil
}

// Append inserts a new redirect edge at the end of the log.
func (s *SlugAliasStore) Append(ctx context.Context, params AppendSlugAliasParams) (SlugAliasRecord, error) {
	if params.FromSlug == "" || params.ToSlug == "" {
		return SlugAliasRecord{}, errors.New("from and to slugs are required")
	}

	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	createdBy := strings.TrimSpace(params.CreatedBy)
	if createdBy == "" {
		createdBy = "system"
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (alias_id, from_slug, to_slug, created_at, created_by)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING seq, alias_id, from_slug, to_slug, created_at, created_by
    `, s.tableIdent)

	row := s.pool.QueryRow(ctx, query, uuid.New(), params.FromSlug, params.ToSlug, createdAt, createdBy)
	rec, err := scanSlugAliasRecord(row)
	if err != nil {
		return SlugAliasRecord{}, fmt.Errorf("append slug alias: %w", err)
	}
	return rec, nil
}

func scanSlugAliasRecord(row pgx.Row) (SlugAliasRecord, error) {
	var rec SlugAliasRecord
	if err := row.Scan(&rec.Seq, &rec.AliasID, &rec.FromSlug, &rec.ToSlug, &rec.CreatedAt, &rec.CreatedBy); err != nil {
		return SlugAliasRecord{}, err
	}
	return rec, nil
}
