package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageState struct {
	CurrentPage int `json:"currentPage"`
}

func newPage() pageState { return pageState{CurrentPage: 1} }

func TestTyped_GetReturnsInitWhenMissing(t *testing.T) {
	pages := NewTyped[pageState](NewMemory(), "page", 1, nil)

	got, err := pages.Get(context.Background(), "sess-1", newPage)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentPage)
}

func TestTyped_UpdateIsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	pages := NewTyped[pageState](NewMemory(), "page", 1, nil)

	_, err := pages.Update(ctx, "sess-1", newPage, func(p *pageState) error { p.CurrentPage = 3; return nil })
	require.NoError(t, err)
	_, err = pages.Update(ctx, "sess-1", newPage, func(p *pageState) error { p.CurrentPage = 5; return nil })
	require.NoError(t, err)

	got, err := pages.Get(ctx, "sess-1", newPage)
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentPage)

	require.NoError(t, pages.Delete(ctx, "sess-1"))
	got, err = pages.Get(ctx, "sess-1", newPage)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentPage)
}

func TestTyped_MigratesOlderRecords(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Save(ctx, "page", "sess-1", Record{Version: 1, Data: json.RawMessage(`{"page":4}`)}))

	pages := NewTyped[pageState](mem, "page", 2, map[int]Migration{
		1: func(in json.RawMessage) (json.RawMessage, error) {
			var old struct {
				Page int `json:"page"`
			}
			if err := json.Unmarshal(in, &old); err != nil {
				return nil, err
			}
			return json.Marshal(pageState{CurrentPage: old.Page})
		},
	})

	got, err := pages.Get(ctx, "sess-1", newPage)
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentPage)
}

func TestTyped_RejectsMissingMigrationAndNewerRecords(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Save(ctx, "page", "old", Record{Version: 1, Data: json.RawMessage(`{}`)}))
	require.NoError(t, mem.Save(ctx, "page", "new", Record{Version: 9, Data: json.RawMessage(`{}`)}))

	pages := NewTyped[pageState](mem, "page", 2, nil)

	_, err := pages.Get(ctx, "old", newPage)
	assert.Error(t, err)
	_, err = pages.Get(ctx, "new", newPage)
	assert.Error(t, err)
}

func setupPostgresTest(t *testing.T) (Store, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	return NewPostgres(db), mock, db
}

func TestPostgres_Load(t *testing.T) {
	s, mock, db := setupPostgresTest(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"version", "data"}).AddRow(1, []byte(`{"currentPage":2}`))
	mock.ExpectQuery("SELECT version, data FROM ui_state WHERE namespace=\\$1 AND key=\\$2").
		WithArgs("page", "sess-1").
		WillReturnRows(rows)

	rec, err := s.Load(context.Background(), "page", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Version)
	assert.JSONEq(t, `{"currentPage":2}`, string(rec.Data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadNotFound(t *testing.T) {
	s, mock, db := setupPostgresTest(t)
	defer db.Close()

	mock.ExpectQuery("SELECT version, data FROM ui_state").
		WithArgs("cart", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Load(context.Background(), "cart", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveUpserts(t *testing.T) {
	s, mock, db := setupPostgresTest(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO ui_state").
		WithArgs("cart", "sess-1", 1, []byte(`{"items":[]}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Save(context.Background(), "cart", "sess-1", Record{Version: 1, Data: json.RawMessage(`{"items":[]}`)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Delete(t *testing.T) {
	s, mock, db := setupPostgresTest(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM ui_state WHERE namespace=\\$1 AND key=\\$2").
		WithArgs("draft", "sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Delete(context.Background(), "draft", "sess-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ui_state").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, InitSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
