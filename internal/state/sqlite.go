// Package state persists sketch load history and curation verdicts.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/veetance/artifice/pkg/core"
)

// SQLiteStore implements core.Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ core.Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger.With("component", "state")}
}

// NewSQLiteStoreWithDB wraps an existing connection.
func NewSQLiteStoreWithDB(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	s := NewSQLiteStore(logger)
	s.db = db
	return s
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("state store opened", "path", path)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema brings the schema up to date.
func (s *SQLiteStore) InitSchema() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if err := s.Migrate(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// --- Load history ---

// RecordLoad appends rec to the load history, filling in ID and LoadedAt
// when they are empty.
func (s *SQLiteStore) RecordLoad(rec *core.LoadRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.LoadedAt.IsZero() {
		rec.LoadedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO sketch_loads (id, session_id, source, generation, parameter_count, status, error, loaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Source, int64(rec.Generation), rec.ParameterCount,
		string(rec.Status), nullString(rec.Error), rec.LoadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record load: %w", err)
	}
	return nil
}

// ListLoads returns the most recent loads, newest first. A non-positive
// limit returns every load.
func (s *SQLiteStore) ListLoads(limit int) ([]*core.LoadRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, source, generation, parameter_count, status, error, loaded_at
		 FROM sketch_loads ORDER BY loaded_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var loads []*core.LoadRecord
	for rows.Next() {
		rec := &core.LoadRecord{}
		var generation int64
		var status string
		var errMsg sql.NullString
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Source, &generation,
			&rec.ParameterCount, &status, &errMsg, &rec.LoadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		rec.Generation = uint64(generation) //nolint:gosec // written from a uint64
		rec.Status = core.LoadStatus(status)
		rec.Error = errMsg.String
		loads = append(loads, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	return loads, nil
}

// --- Verdicts ---

// SetVerdict records the latest verdict for source, replacing any earlier one.
func (s *SQLiteStore) SetVerdict(source string, verdict core.Verdict, sessionID string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if !verdict.Valid() {
		return fmt.Errorf("invalid verdict %q", verdict)
	}

	_, err := s.db.Exec(
		`INSERT INTO verdicts (source, verdict, session_id, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET
		   verdict = excluded.verdict,
		   session_id = excluded.session_id,
		   updated_at = excluded.updated_at`,
		source, string(verdict), sessionID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set verdict: %w", err)
	}
	return nil
}

// GetVerdict returns the verdict for source, or core.ErrNotFound.
func (s *SQLiteStore) GetVerdict(source string) (*core.VerdictRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rec := &core.VerdictRecord{}
	var verdict string
	err := s.db.QueryRow(
		`SELECT source, verdict, session_id, updated_at FROM verdicts WHERE source = ?`,
		source,
	).Scan(&rec.Source, &verdict, &rec.SessionID, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("verdict for %s: %w", source, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verdict: %w", err)
	}
	rec.Verdict = core.Verdict(verdict)
	return rec, nil
}

// ListVerdicts returns verdicts ordered by source. An empty verdict lists all.
func (s *SQLiteStore) ListVerdicts(verdict core.Verdict) ([]*core.VerdictRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT source, verdict, session_id, updated_at FROM verdicts`
	var args []any
	if verdict != "" {
		query += ` WHERE verdict = ?`
		args = append(args, string(verdict))
	}
	query += ` ORDER BY source`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list verdicts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*core.VerdictRecord
	for rows.Next() {
		rec := &core.VerdictRecord{}
		var v string
		if err := rows.Scan(&rec.Source, &v, &rec.SessionID, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		rec.Verdict = core.Verdict(v)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list verdicts: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
