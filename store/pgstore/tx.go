package pgstore

import (
	"context"
	"database/sql"
)

type txKey struct{}

// WithTx stores a host transaction in ctx so audit writes join it, making the
// entity mutation and its audit record commit or roll back together.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, tx)
}

// txFrom extracts a SQL transaction from context if present.
func txFrom(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}
