// Package storage persists pipeline runs in SQLite so past prompts and
// scripts stay inspectable after the process exits.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID        int64
	Status    string // "ok" or "failed"
	Stories   int
	OnThisDay string
	Prompt    string
	Script    string
	Error     string
	CreatedAt time.Time
}

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the runs database at path.
func New(path string) (*DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(2)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	stmt := `CREATE TABLE IF NOT EXISTS runs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		status       TEXT    NOT NULL,
		stories      INTEGER NOT NULL DEFAULT 0,
		on_this_day  TEXT    NOT NULL DEFAULT '',
		prompt       TEXT    NOT NULL DEFAULT '',
		script       TEXT    NOT NULL DEFAULT '',
		error        TEXT    NOT NULL DEFAULT '',
		created_at   TEXT    NOT NULL DEFAULT (datetime('now'))
	)`
	if _, err := db.conn.Exec(stmt); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

// SaveRun inserts a run record and fills in its ID and timestamp.
func (db *DB) SaveRun(r *Run) error {
	res, err := db.conn.Exec(`
		INSERT INTO runs (status, stories, on_this_day, prompt, script, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Status, r.Stories, r.OnThisDay, r.Prompt, r.Script, r.Error)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	r.ID, _ = res.LastInsertId()
	r.CreatedAt = time.Now()
	return nil
}

// LatestRun returns the most recent run, or sql.ErrNoRows when none exist.
func (db *DB) LatestRun() (Run, error) {
	var r Run
	var createdAt string
	err := db.conn.QueryRow(`
		SELECT id, status, stories, on_this_day, prompt, script, error, created_at
		FROM runs ORDER BY id DESC LIMIT 1`).Scan(
		&r.ID, &r.Status, &r.Stories, &r.OnThisDay, &r.Prompt, &r.Script, &r.Error, &createdAt)
	if err != nil {
		return r, err
	}
	r.CreatedAt, _ = parseTime(createdAt)
	return r, nil
}

// ListRuns returns the newest limit runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := db.conn.Query(`
		SELECT id, status, stories, on_this_day, prompt, script, error, created_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Status, &r.Stories, &r.OnThisDay,
			&r.Prompt, &r.Script, &r.Error, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = parseTime(createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// PruneRuns deletes all but the newest keep runs.
func (db *DB) PruneRuns(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := db.conn.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func parseTime(s string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", s)
}
