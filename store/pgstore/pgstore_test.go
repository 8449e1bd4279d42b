package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/gaudit"
)

var recordColumns = []string{"id", "association_chain", "scope", "action", "modifier_id", "original", "modified", "created_at"}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func sampleRecord() *gaudit.Record {
	return &gaudit.Record{
		ID:               uuid.MustParse("7f0c2b7e-2f7a-4d0e-9a55-0d4f0b7c9a11"),
		AssociationChain: []gaudit.Association{{ID: 7, Name: "User"}},
		Scope:            "accounts",
		Action:           gaudit.ActionUpdate,
		ModifierID:       "admin",
		Original:         map[string]any{"name": "old"},
		Modified:         map[string]any{"name": "new"},
		CreatedAt:        time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNew(t *testing.T) {
	t.Run("nil database", func(t *testing.T) {
		s, err := New(nil, Config{})
		assert.Error(t, err)
		assert.Nil(t, s)
	})

	t.Run("default table", func(t *testing.T) {
		db, _ := setupMockDB(t)
		s, err := New(db, Config{})
		require.NoError(t, err)
		assert.Equal(t, `"audits"`, s.table)
	})

	t.Run("qualified table", func(t *testing.T) {
		db, _ := setupMockDB(t)
		s, err := New(db, Config{Table: "audit.entries"})
		require.NoError(t, err)
		assert.Equal(t, `"audit"."entries"`, s.table)
	})

	t.Run("invalid table", func(t *testing.T) {
		db, _ := setupMockDB(t)
		_, err := New(db, Config{Table: "public."})
		assert.Error(t, err)
	})
}

func TestStore_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s, err := New(db, Config{})
		require.NoError(t, err)
		r := sampleRecord()

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audits"`)).
			WithArgs(
				r.ID.String(), `[{"id":7,"name":"User"}]`, "accounts", "update", "admin",
				`{"name":"old"}`, `{"name":"new"}`, r.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), r))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil maps become empty objects", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s, err := New(db, Config{})
		require.NoError(t, err)
		r := sampleRecord()
		r.Action = gaudit.ActionCreate
		r.Original = nil

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audits"`)).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "accounts", "create", "admin", `{}`, `{"name":"new"}`, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), r))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid record is not written", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s, err := New(db, Config{})
		require.NoError(t, err)
		r := sampleRecord()
		r.ModifierID = ""

		err = s.Create(context.Background(), r)
		assert.ErrorIs(t, err, gaudit.ErrInvalidRecord)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s, err := New(db, Config{})
		require.NoError(t, err)
		errInsert := errors.New("connection reset")

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audits"`)).WillReturnError(errInsert)

		err = s.Create(context.Background(), sampleRecord())
		assert.ErrorIs(t, err, errInsert)
		assert.Contains(t, err.Error(), "failed to insert audit record")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("joins transaction from context", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s, err := New(db, Config{})
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audits"`)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		ctx := context.Background()
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		_, err = tx.ExecContext(ctx, `UPDATE users SET name = $1 WHERE id = $2`, "new", 7)
		require.NoError(t, err)
		require.NoError(t, s.Create(WithTx(ctx, tx), sampleRecord()))
		require.NoError(t, tx.Rollback())

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Query(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s, err := New(db, Config{})
		require.NoError(t, err)
		r := sampleRecord()

		rows := sqlmock.NewRows(recordColumns).
			AddRow(r.ID.String(), []byte(`[{"id":7,"name":"User"}]`), "accounts", "update", "admin",
				[]byte(`{"name":"old"}`), []byte(`{"name":"new"}`), r.CreatedAt).
			AddRow(uuid.NewString(), []byte(`[{"id":7,"name":"User"}]`), "accounts", "destroy", "root",
				nil, []byte(`{"name":"new"}`), r.CreatedAt.Add(time.Minute))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM "audits"`)).
			WithArgs("accounts", `[{"id":7,"name":"User"}]`).
			WillReturnRows(rows)

		got, err := s.Query(context.Background(), gaudit.Filter{
			Scope:            "accounts",
			AssociationChain: []gaudit.Association{{ID: 7, Name: "User"}},
		})
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, r.ID, got[0].ID)
		assert.Equal(t, []gaudit.Association{{ID: float64(7), Name: "User"}}, got[0].AssociationChain)
		assert.Equal(t, gaudit.ActionUpdate, got[0].Action)
		assert.Equal(t, map[string]any{"name": "old"}, got[0].Original)
		assert.Equal(t, map[string]any{"name": "new"}, got[0].Modified)
		assert.Equal(t, r.CreatedAt, got[0].CreatedAt)

		assert.Equal(t, gaudit.ActionDestroy, got[1].Action)
		assert.Equal(t, map[string]any{}, got[1].Original)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s, err := New(db, Config{})
		require.NoError(t, err)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM "audits"`)).WillReturnError(sql.ErrConnDone)

		_, err = s.Query(context.Background(), gaudit.Filter{Scope: "accounts"})
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt json", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s, err := New(db, Config{})
		require.NoError(t, err)

		rows := sqlmock.NewRows(recordColumns).
			AddRow(uuid.NewString(), []byte(`not json`), "accounts", "create", "admin", nil, nil, time.Now())
		mock.ExpectQuery(regexp.QuoteMeta(`FROM "audits"`)).WillReturnRows(rows)

		_, err = s.Query(context.Background(), gaudit.Filter{Scope: "accounts"})
		assert.ErrorContains(t, err, "failed to decode association chain")
	})
}

func TestStore_QueryInTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	s, err := New(db, Config{})
	require.NoError(t, err)
	r := sampleRecord()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audits"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "audits"`)).
		WithArgs("accounts", `[{"id":7,"name":"User"}]`).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(r.ID.String(), []byte(`[{"id":7,"name":"User"}]`), "accounts", "update", "admin",
				[]byte(`{"name":"old"}`), []byte(`{"name":"new"}`), r.CreatedAt))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	txCtx := WithTx(ctx, tx)

	require.NoError(t, s.Create(txCtx, r))
	got, err := s.Query(txCtx, gaudit.Filter{
		Scope:            "accounts",
		AssociationChain: []gaudit.Association{{ID: 7, Name: "User"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].ID)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())

	q, ok := s.queryer(txCtx).(*sql.Tx)
	assert.True(t, ok)
	assert.Same(t, tx, q)
	_, ok = s.queryer(ctx).(*sql.DB)
	assert.True(t, ok)
}

func TestMigrate(t *testing.T) {
	t.Run("table only", func(t *testing.T) {
		db, mock := setupMockDB(t)

		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "audits"`)).WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, Migrate(context.Background(), db, SchemaConfig{}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with indexes", func(t *testing.T) {
		db, mock := setupMockDB(t)

		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "audit"."entries"`)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`CREATE INDEX IF NOT EXISTS "idx_entries_scope_chain" ON "audit"."entries"`)).WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, Migrate(context.Background(), db, SchemaConfig{Table: "audit.entries", CreateIndexes: true}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("table creation error", func(t *testing.T) {
		db, mock := setupMockDB(t)

		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS`)).WillReturnError(errors.New("permission denied"))

		err := Migrate(context.Background(), db, SchemaConfig{})
		assert.ErrorContains(t, err, "failed to create audit table")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid identifier", func(t *testing.T) {
		db, _ := setupMockDB(t)
		assert.Error(t, Migrate(context.Background(), db, SchemaConfig{Table: `"".audits`}))
	})
}
