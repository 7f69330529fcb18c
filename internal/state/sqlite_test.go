package state

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veetance/artifice/internal/testutil"
	"github.com/veetance/artifice/pkg/core"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Close())
}

func TestSQLiteStore_InitSchema(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"sketch_loads", "verdicts"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Running the migrations again is a no-op.
	require.NoError(t, store.InitSchema())
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := t.TempDir() + "/state.db"

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.InitSchema())
	require.NoError(t, store.SetVerdict("a.js", core.VerdictFlag, "s1"))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.InitSchema())

	rec, err := reopened.GetVerdict("a.js")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictFlag, rec.Verdict)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)

	assert.EqualError(t, store.InitSchema(), "database not opened")
	assert.EqualError(t, store.RecordLoad(&core.LoadRecord{}), "database not opened")
	assert.EqualError(t, store.SetVerdict("a.js", core.VerdictKeep, "s"), "database not opened")

	_, err := store.ListLoads(10)
	assert.EqualError(t, err, "database not opened")
	_, err = store.GetVerdict("a.js")
	assert.EqualError(t, err, "database not opened")
	_, err = store.ListVerdicts("")
	assert.EqualError(t, err, "database not opened")
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_Loads(t *testing.T) {
	store := setupTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []*core.LoadRecord{
		{SessionID: "s1", Source: "a.js", Generation: 1, ParameterCount: 3, Status: core.LoadStatusLoaded, LoadedAt: base},
		{SessionID: "s1", Source: "b.js", Generation: 2, Status: core.LoadStatusFailed, Error: "404", LoadedAt: base.Add(time.Second)},
		{SessionID: "s2", Source: "c.js", Generation: 1, Status: core.LoadStatusSuperseded, LoadedAt: base.Add(2 * time.Second)},
	}
	for _, rec := range records {
		require.NoError(t, store.RecordLoad(rec))
		assert.NotEmpty(t, rec.ID)
	}

	all, err := store.ListLoads(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c.js", all[0].Source)
	assert.Equal(t, "a.js", all[2].Source)
	assert.Equal(t, 3, all[2].ParameterCount)
	assert.Equal(t, uint64(1), all[2].Generation)
	assert.True(t, base.Equal(all[2].LoadedAt))

	assert.Equal(t, core.LoadStatusFailed, all[1].Status)
	assert.Equal(t, "404", all[1].Error)
	assert.Empty(t, all[0].Error)

	limited, err := store.ListLoads(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "b.js", limited[1].Source)
}

func TestSQLiteStore_RecordLoadDefaults(t *testing.T) {
	store := setupTestStore(t)

	rec := &core.LoadRecord{SessionID: "s", Source: "a.js", Status: core.LoadStatusLoaded}
	require.NoError(t, store.RecordLoad(rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.LoadedAt.IsZero())
}

func TestSQLiteStore_Verdicts(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.SetVerdict("b.js", core.VerdictFlag, "s1"))
	require.NoError(t, store.SetVerdict("a.js", core.VerdictKeep, "s1"))
	require.NoError(t, store.SetVerdict("c.js", core.VerdictFlag, "s1"))

	// Latest verdict wins.
	require.NoError(t, store.SetVerdict("a.js", core.VerdictFlag, "s2"))

	rec, err := store.GetVerdict("a.js")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictFlag, rec.Verdict)
	assert.Equal(t, "s2", rec.SessionID)

	flagged, err := store.ListVerdicts(core.VerdictFlag)
	require.NoError(t, err)
	sources := make([]string, 0, len(flagged))
	for _, v := range flagged {
		sources = append(sources, v.Source)
	}
	assert.Equal(t, []string{"a.js", "b.js", "c.js"}, sources)

	kept, err := store.ListVerdicts(core.VerdictKeep)
	require.NoError(t, err)
	assert.Empty(t, kept)

	all, err := store.ListVerdicts("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = store.GetVerdict("missing.js")
	require.ErrorIs(t, err, core.ErrNotFound)

	require.Error(t, store.SetVerdict("a.js", core.Verdict("maybe"), "s1"))
}

func TestSQLiteStore_DriverErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		call      func(s *SQLiteStore) error
		errMsg    string
	}{
		{
			name: "record load",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO sketch_loads").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				return s.RecordLoad(&core.LoadRecord{Source: "a.js", Status: core.LoadStatusLoaded})
			},
			errMsg: "failed to record load",
		},
		{
			name: "list loads query",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM sketch_loads").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListLoads(5)
				return err
			},
			errMsg: "failed to list loads",
		},
		{
			name: "list loads scan",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id"}).AddRow("only-one-column")
				mock.ExpectQuery("FROM sketch_loads").WillReturnRows(rows)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListLoads(5)
				return err
			},
			errMsg: "failed to scan load",
		},
		{
			name: "set verdict",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO verdicts").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				return s.SetVerdict("a.js", core.VerdictKeep, "s")
			},
			errMsg: "failed to set verdict",
		},
		{
			name: "get verdict",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM verdicts").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.GetVerdict("a.js")
				return err
			},
			errMsg: "failed to get verdict",
		},
		{
			name: "list verdicts",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM verdicts").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListVerdicts(core.VerdictFlag)
				return err
			},
			errMsg: "failed to list verdicts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.setupMock(mock)
			store := NewSQLiteStoreWithDB(db, testutil.NewTestLogger(t))

			err = tt.call(store)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
