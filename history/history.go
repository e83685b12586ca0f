// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

// Package history store the result of each run in SQLite database, so the
// URLs that failed on the previous run can be rechecked later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"git.sr.ht/~shulhan/alive/liveness"
)

// ErrNotFound define an error when the requested run does not exist.
var ErrNotFound = errors.New(`run not found`)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	live        INTEGER NOT NULL,
	unresolved  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	run_id     INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx        INTEGER NOT NULL,
	url        TEXT NOT NULL,
	status     TEXT NOT NULL,
	code       INTEGER NOT NULL DEFAULT 0,
	attempts   INTEGER NOT NULL DEFAULT 0,
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	error      TEXT,
	PRIMARY KEY (run_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_results_status ON results(run_id, status);
`

// Run is the summary of one stored run.
type Run struct {
	Started  time.Time
	Finished time.Time

	// Entries ordered by the input index.
	Entries []Entry

	ID         int64
	Total      int
	Live       int
	Unresolved int
}

// Entry is the stored verdict of single URL in a run.
type Entry struct {
	URL      string
	Status   liveness.Status
	Error    string
	Index    int
	Code     int
	Attempts int
	Elapsed  time.Duration
}

// Store is the SQLite database of runs.
type Store struct {
	db *sql.DB
}

// Open the database file, create it and its parent directory if its not
// exist.
func Open(file string) (store *Store, err error) {
	var logp = `Open`

	err = os.MkdirAll(filepath.Dir(file), 0700)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}

	var db *sql.DB
	db, err = sql.Open(`sqlite`, file)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}

	_, err = db.Exec(schema)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}

	return &Store{db: db}, nil
}

// Close the database.
func (store *Store) Close() error {
	return store.db.Close()
}

// SaveRun store the result and all of its targets, return the ID of new
// run.
// The pending targets are stored with status [liveness.StatusUnresolved].
func (store *Store) SaveRun(ctx context.Context, result *liveness.Result) (id int64, err error) {
	var logp = `SaveRun`

	var tx *sql.Tx
	tx, err = store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf(`%s: %w`, logp, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, total, live, unresolved)
		 VALUES (?, ?, ?, ?, ?)`,
		result.Started.UnixMilli(), result.Finished.UnixMilli(),
		len(result.Targets)+result.Unresolved, result.CountLive(),
		result.Unresolved,
	)
	if err != nil {
		return 0, fmt.Errorf(`%s: %w`, logp, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf(`%s: %w`, logp, err)
	}

	var stmt *sql.Stmt
	stmt, err = tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, idx, url, status, code, attempts,
			elapsed_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf(`%s: %w`, logp, err)
	}
	defer stmt.Close()

	for _, tres := range result.Targets {
		_, err = stmt.ExecContext(ctx, id, tres.Target.Index,
			tres.Target.URL, string(tres.Status), tres.Code,
			tres.Attempts, tres.Elapsed.Milliseconds(),
			sql.NullString{String: tres.Error, Valid: tres.Error != ``},
		)
		if err != nil {
			return 0, fmt.Errorf(`%s: %s: %w`, logp, tres.Target.URL, err)
		}
	}
	for _, target := range result.Pending {
		_, err = stmt.ExecContext(ctx, id, target.Index, target.URL,
			string(liveness.StatusUnresolved), 0, 0, 0, nil)
		if err != nil {
			return 0, fmt.Errorf(`%s: %s: %w`, logp, target.URL, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf(`%s: %w`, logp, err)
	}
	return id, nil
}

// LatestRun return the last stored run with its entries.
// It return [ErrNotFound] if the database is empty.
func (store *Store) LatestRun(ctx context.Context) (run *Run, err error) {
	var logp = `LatestRun`

	var (
		row = store.db.QueryRowContext(ctx,
			`SELECT id, started_at, finished_at, total, live, unresolved
			 FROM runs ORDER BY id DESC LIMIT 1`)
		started  int64
		finished int64
	)
	run = &Run{}
	err = row.Scan(&run.ID, &started, &finished, &run.Total, &run.Live,
		&run.Unresolved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf(`%s: %w`, logp, ErrNotFound)
		}
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}
	run.Started = time.UnixMilli(started)
	run.Finished = time.UnixMilli(finished)

	run.Entries, err = store.entries(ctx, run.ID, false)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}
	return run, nil
}

// FailedURLs return the URLs in the run whose status is not live,
// including the unresolved one, ordered by its input index.
func (store *Store) FailedURLs(ctx context.Context, runID int64) (urls []string, err error) {
	var logp = `FailedURLs`
	var entries []Entry

	entries, err = store.entries(ctx, runID, true)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}
	for _, entry := range entries {
		urls = append(urls, entry.URL)
	}
	return urls, nil
}

func (store *Store) entries(ctx context.Context, runID int64, onlyFailed bool) (entries []Entry, err error) {
	var query = `SELECT idx, url, status, code, attempts, elapsed_ms,
		COALESCE(error, '')
		FROM results WHERE run_id = ?`
	var args = []any{runID}
	if onlyFailed {
		query += ` AND status != ?`
		args = append(args, string(liveness.StatusLive))
	}
	query += ` ORDER BY idx ASC`

	var rows *sql.Rows
	rows, err = store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry     Entry
			status    string
			elapsedMs int64
		)
		err = rows.Scan(&entry.Index, &entry.URL, &status, &entry.Code,
			&entry.Attempts, &elapsedMs, &entry.Error)
		if err != nil {
			return nil, err
		}
		entry.Status = liveness.Status(status)
		entry.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
