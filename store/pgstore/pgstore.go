// Package pgstore implements gaudit.Store on a PostgreSQL table.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mickamy/gaudit"
	"github.com/mickamy/gaudit/internal/ident"
)

// DefaultTable is the audit table used when Config.Table is empty.
const DefaultTable = "audits"

// Config defines the table a Store reads and writes.
type Config struct {
	Table string // possibly schema-qualified, e.g. "public.audits"
}

// Store persists records in a single audit table created by Migrate.
type Store struct {
	db    *sql.DB
	table string // quoted identifier
}

var _ gaudit.Store = (*Store)(nil)

// New creates a Store on db.
func New(db *sql.DB, cfg Config) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("pgstore: database connection is required")
	}
	table, err := quotedTable(cfg.Table)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, table: table}, nil
}

func quotedTable(name string) (string, error) {
	if name == "" {
		name = DefaultTable
	}
	quoted := ident.QuoteQualified(ident.SplitQualified(name))
	if quoted == "" {
		return "", fmt.Errorf("pgstore: invalid table identifier %q", name)
	}
	return quoted, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) execer {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) queryer(ctx context.Context) queryer {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return s.db
}

// Create validates r and inserts it. Inside a context carrying a transaction
// (see WithTx) the insert runs in that transaction.
func (s *Store) Create(ctx context.Context, r *gaudit.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	chain, err := json.Marshal(r.AssociationChain)
	if err != nil {
		return fmt.Errorf("pgstore: failed to marshal association chain: %w", err)
	}
	original, err := marshalMap(r.Original)
	if err != nil {
		return fmt.Errorf("pgstore: failed to marshal original: %w", err)
	}
	modified, err := marshalMap(r.Modified)
	if err != nil {
		return fmt.Errorf("pgstore: failed to marshal modified: %w", err)
	}

	stmt := fmt.Sprintf(`
INSERT INTO %s (id, association_chain, scope, action, modifier_id, original, modified, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, s.table)
	if _, err := s.execer(ctx).ExecContext(ctx, stmt,
		r.ID,
		string(chain),
		r.Scope,
		r.Action.String(),
		r.ModifierID,
		original,
		modified,
		r.CreatedAt,
	); err != nil {
		return fmt.Errorf("pgstore: failed to insert audit record: %w", err)
	}
	return nil
}

// Query returns records with the filter's scope and exactly its association chain, oldest first.
// Inside a context carrying a transaction it also sees that transaction's uncommitted records.
func (s *Store) Query(ctx context.Context, f gaudit.Filter) ([]gaudit.Record, error) {
	chain, err := json.Marshal(f.AssociationChain)
	if err != nil {
		return nil, fmt.Errorf("pgstore: failed to marshal association chain: %w", err)
	}
	q := fmt.Sprintf(`
SELECT id, association_chain, scope, action, modifier_id, original, modified, created_at
FROM %s
WHERE scope = $1 AND association_chain = $2::jsonb
ORDER BY created_at, id
`, s.table)
	rows, err := s.queryer(ctx).QueryContext(ctx, q, f.Scope, string(chain))
	if err != nil {
		return nil, fmt.Errorf("pgstore: failed to query audit records: %w", err)
	}
	return scanRecords(rows)
}

func marshalMap(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
