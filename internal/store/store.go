// Package store caches the latest classification per user in SQLite and
// keeps a history of completed runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/TheApexWu/suzerain/internal/models"
)

// ErrNotFound is returned when a user has no cached classification
var ErrNotFound = errors.New("no classification cached")

// Record is the cached latest run of one user
type Record struct {
	UserID     string
	RunID      string
	ComputedAt time.Time
	Report     models.Report
}

// HistoryEntry is one saved run, without the full report
type HistoryEntry struct {
	RunID          string           `json:"run_id"`
	UserID         string           `json:"user_id"`
	ComputedAt     time.Time        `json:"computed_at"`
	Status         string           `json:"status"`
	Archetype      models.Archetype `json:"archetype,omitempty"`
	Rule           string           `json:"rule,omitempty"`
	Confidence     string           `json:"confidence"`
	Trust          float64          `json:"trust"`
	Sophistication float64          `json:"sophistication"`
	Variance       float64          `json:"variance"`
	Sessions       int              `json:"sessions"`
	Events         int              `json:"events"`
}

// Store manages the SQLite classification cache
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the database at dbPath and applies
// migrations. ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// pragmas below only reach one pooled connection; the DSN applies the
	// busy timeout and immediate write locks to all of them
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_busy_timeout=5000&_txlock=immediate"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	// busy_timeout first so the remaining pragmas wait on locks
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return s, nil
}

// execWithRetry executes a statement, backing off exponentially while the
// database is locked
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path
func (s *Store) Path() string {
	return s.dbPath
}

// Save records a completed run. The run is always appended to history; it
// replaces the cached latest classification only if it is not older than
// the one already cached. Save reports whether the latest entry changed.
// A report without a RunID is assigned one.
func (s *Store) Save(ctx context.Context, userID string, report *models.Report) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("save classification: empty user id")
	}
	if report.RunID == "" {
		report.RunID = uuid.NewString()
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return false, fmt.Errorf("marshal report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	computedAt := report.GeneratedAt.UnixNano()
	c := report.Classification
	f := report.Features

	_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO classification_history
		(run_id, user_id, computed_at, status, archetype, rule, confidence, trust, sophistication, variance, sessions, events)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, userID, computedAt, c.Status, nullString(string(c.Archetype)), nullString(c.Rule), c.Confidence,
		f.TrustLevel, f.Sophistication, f.Variance, f.Sessions, f.Events)
	if err != nil {
		return false, fmt.Errorf("insert history: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO latest_classification
		(user_id, run_id, computed_at, status, archetype, report)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			run_id = excluded.run_id,
			computed_at = excluded.computed_at,
			status = excluded.status,
			archetype = excluded.archetype,
			report = excluded.report
		WHERE excluded.computed_at >= latest_classification.computed_at`,
		userID, report.RunID, computedAt, c.Status, nullString(string(c.Archetype)), string(payload))
	if err != nil {
		return false, fmt.Errorf("upsert latest classification: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return changed > 0, nil
}

// Latest returns the cached classification of userID or ErrNotFound
func (s *Store) Latest(ctx context.Context, userID string) (*Record, error) {
	var (
		rec        Record
		computedAt int64
		payload    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, run_id, computed_at, report FROM latest_classification WHERE user_id = ?`, userID).
		Scan(&rec.UserID, &rec.RunID, &computedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest classification: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &rec.Report); err != nil {
		return nil, fmt.Errorf("decode cached report: %w", err)
	}
	rec.ComputedAt = time.Unix(0, computedAt).UTC()
	return &rec, nil
}

// History lists saved runs of userID, newest first. limit <= 0 means all.
func (s *Store) History(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	query := `SELECT run_id, user_id, computed_at, status, COALESCE(archetype, ''), COALESCE(rule, ''),
		COALESCE(confidence, ''), trust, sophistication, variance, sessions, events
		FROM classification_history WHERE user_id = ? ORDER BY computed_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e          HistoryEntry
			computedAt int64
			archetype  string
		)
		if err := rows.Scan(&e.RunID, &e.UserID, &computedAt, &e.Status, &archetype, &e.Rule,
			&e.Confidence, &e.Trust, &e.Sophistication, &e.Variance, &e.Sessions, &e.Events); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.ComputedAt = time.Unix(0, computedAt).UTC()
		e.Archetype = models.Archetype(archetype)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Prune keeps the newest keep history entries of userID and returns how
// many were deleted
func (s *Store) Prune(ctx context.Context, userID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM classification_history
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM classification_history WHERE user_id = ?
			ORDER BY computed_at DESC, id DESC LIMIT ?)`, userID, userID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
