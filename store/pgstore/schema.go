package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mickamy/gaudit/internal/ident"
)

// SchemaConfig controls audit table creation.
type SchemaConfig struct {
	Table         string // default: DefaultTable
	CreateIndexes bool   // index (scope, association_chain) for Query
}

// Migrate creates the audit table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB, cfg SchemaConfig) error {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	parts := ident.SplitQualified(cfg.Table)
	table := ident.QuoteQualified(parts)
	if table == "" {
		return fmt.Errorf("pgstore: invalid table identifier %q", cfg.Table)
	}

	columns := []string{
		"id UUID PRIMARY KEY",
		"association_chain JSONB NOT NULL",
		"scope TEXT NOT NULL",
		"action TEXT NOT NULL",
		"modifier_id TEXT NOT NULL",
		"original JSONB NOT NULL DEFAULT '{}'::jsonb",
		"modified JSONB NOT NULL DEFAULT '{}'::jsonb",
		"created_at TIMESTAMPTZ NOT NULL",
	}
	ddl := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS %s (
        %s
    );
    `, table, strings.Join(columns, ",\n\t"))

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("pgstore: failed to create audit table: %w", err)
	}
	if cfg.CreateIndexes {
		indexName := fmt.Sprintf("idx_%s_scope_chain", parts[len(parts)-1])
		stmt := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (scope, association_chain);`, ident.Quote(indexName), table)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("pgstore: failed to create audit index: %w", err)
		}
	}
	return nil
}
