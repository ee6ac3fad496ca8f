/*
Package sqlite provides the SQLite-backed session store.

PURPOSE:
  Persists one user's planning session - division, viewed year,
  allowance, and the full selection set - so it survives restarts.
  The engine treats storage as an external collaborator; this package
  owns the mechanics.

KEY TABLES:
  session:       keyed settings (division, year, allowance)
  selected_days: one row per selected leave day, ISO date primary key

DATE FIDELITY:
  Dates are stored as ISO calendar strings (2006-01-02), never as
  timestamps, so a round trip cannot shift a day by a timezone offset.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency and crash recovery.

USAGE:
  store, err := sqlite.New("./data/planner.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - store/memory: in-memory implementation for tests
  - leave/session.go: the persisted shape
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/AntObr/holiday-planner/calendar"
	"github.com/AntObr/holiday-planner/holidays"
	"github.com/AntObr/holiday-planner/leave"
)

// Store persists the planning session in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store at the given database path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Keyed session settings
	CREATE TABLE IF NOT EXISTS session (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- Selected leave days, one row per day
	CREATE TABLE IF NOT EXISTS selected_days (
		date TEXT PRIMARY KEY
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const (
	keyDivision  = "division"
	keyYear      = "year"
	keyAllowance = "allowance"
)

// =============================================================================
// SAVE - wholesale, in one transaction
// =============================================================================

// SaveSession replaces the persisted session atomically. The selection
// set is small (bounded by the allowance), so a wholesale rewrite keeps
// the store trivially consistent with the in-memory planner.
func (s *Store) SaveSession(ctx context.Context, session leave.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	settings := map[string]string{
		keyDivision:  string(session.Division),
		keyYear:      strconv.Itoa(session.Year),
		keyAllowance: strconv.Itoa(session.Allowance),
	}
	for key, value := range settings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM selected_days`); err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}
	for _, d := range session.Selected {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO selected_days (date) VALUES (?)`, d.ISO()); err != nil {
			return fmt.Errorf("failed to save selected day %s: %w", d, err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// LOAD
// =============================================================================

// LoadSession returns the persisted session. The second return value is
// false when nothing has been saved yet; callers fall back to
// leave.DefaultSession.
func (s *Store) LoadSession(ctx context.Context) (leave.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session`)
	if err != nil {
		return leave.Session{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return leave.Session{}, false, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return leave.Session{}, false, err
	}
	if len(settings) == 0 {
		return leave.Session{}, false, nil
	}

	session := leave.DefaultSession()
	if v, ok := settings[keyDivision]; ok {
		if division := holidays.Division(v); division.Valid() {
			session.Division = division
		}
	}
	if v, ok := settings[keyYear]; ok {
		if year, err := strconv.Atoi(v); err == nil {
			session.Year = year
		}
	}
	if v, ok := settings[keyAllowance]; ok {
		if allowance, err := strconv.Atoi(v); err == nil && allowance >= 0 {
			session.Allowance = allowance
		}
	}

	selected, err := s.loadSelection(ctx)
	if err != nil {
		return leave.Session{}, false, err
	}
	session.Selected = selected

	return session, true, nil
}

func (s *Store) loadSelection(ctx context.Context) ([]calendar.Date, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date FROM selected_days ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to load selection: %w", err)
	}
	defer rows.Close()

	var selected []calendar.Date
	for rows.Next() {
		var iso string
		if err := rows.Scan(&iso); err != nil {
			return nil, fmt.Errorf("failed to scan selected day: %w", err)
		}
		date, err := calendar.ParseISO(iso)
		if err != nil {
			return nil, fmt.Errorf("corrupt selected day %q: %w", iso, err)
		}
		selected = append(selected, date)
	}
	return selected, rows.Err()
}
