// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runstore persists completed research runs and indexes their
// reports for full-text search.
// Implements: prd015-run-store (R1-R5); docs/ARCHITECTURE § Run Store.
package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/repurpose-engine/internal/orchestrator"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "runs.db"
)

// Store manages the research-run SQLite database.
type Store struct {
	db         *sql.DB
	runsDir    string
	maxResults int
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID        string    `yaml:"id"`
	Query     string    `yaml:"query"`
	InputType string    `yaml:"input_type"`
	Started   time.Time `yaml:"started"`
	Errors    int       `yaml:"errors"`
}

// RunDetail is a fully loaded stored run.
type RunDetail struct {
	RunSummary `yaml:",inline"`
	Report     string            `yaml:"report"`
	Slots      map[string]string `yaml:"slots"`
	Traces     []string          `yaml:"traces,omitempty"`
}

// NewStore opens or creates the run database at runsDir/index/runs.db,
// creating the schema when missing (R1.1, R1.2).
func NewStore(cfg types.RunStoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.RunsDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, runsDir: cfg.RunsDir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			query TEXT NOT NULL,
			input_type TEXT,
			started TEXT,
			report TEXT,
			error_count INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS slots (
			run_id TEXT NOT NULL REFERENCES runs(id),
			slot TEXT NOT NULL,
			content TEXT,
			PRIMARY KEY (run_id, slot)
		)`,
		`CREATE TABLE IF NOT EXISTS traces (
			run_id TEXT NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			trace TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_run_id ON slots(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over report text, with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='runs_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE runs_fts USING fts5(report, content=runs, content_rowid=rowid)`,
			`CREATE TRIGGER runs_ai AFTER INSERT ON runs BEGIN
				INSERT INTO runs_fts(rowid, report) VALUES (new.rowid, new.report);
			END`,
			`CREATE TRIGGER runs_ad AFTER DELETE ON runs BEGIN
				INSERT INTO runs_fts(runs_fts, rowid, report) VALUES('delete', old.rowid, old.report);
			END`,
			`CREATE TRIGGER runs_au AFTER UPDATE ON runs BEGIN
				INSERT INTO runs_fts(runs_fts, rowid, report) VALUES('delete', old.rowid, old.report);
				INSERT INTO runs_fts(rowid, report) VALUES (new.rowid, new.report);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save stores one completed run with its slots and error traces (R2).
func (s *Store) Save(ctx context.Context, rc *orchestrator.ResearchContext, report string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inputType := ""
	if rec := rc.Record(); rec != nil {
		inputType = string(rec.InputType)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, input_type, started, report, error_count)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			query=excluded.query, input_type=excluded.input_type,
			started=excluded.started, report=excluded.report,
			error_count=excluded.error_count`,
		rc.RunID, rc.Query, inputType,
		rc.Started.Format(time.RFC3339Nano), report, len(rc.Errors()),
	)
	if err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM slots WHERE run_id = ?`, rc.RunID); err != nil {
		return fmt.Errorf("clearing old slots: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO slots (run_id, slot, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing slot insert: %w", err)
	}
	defer stmt.Close()
	for slot, content := range rc.Slots() {
		if _, err := stmt.ExecContext(ctx, rc.RunID, slot, content); err != nil {
			return fmt.Errorf("inserting slot %s: %w", slot, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM traces WHERE run_id = ?`, rc.RunID); err != nil {
		return fmt.Errorf("clearing old traces: %w", err)
	}
	for i, trace := range rc.Errors() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO traces (run_id, position, trace) VALUES (?, ?, ?)`,
			rc.RunID, i, trace,
		); err != nil {
			return fmt.Errorf("inserting trace %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// List returns stored runs newest first, up to the configured cap (R3).
func (s *Store) List(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, input_type, started, error_count
		 FROM runs ORDER BY started DESC LIMIT ?`, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Get loads one run with its slots and traces (R4).
func (s *Store) Get(ctx context.Context, runID string) (*RunDetail, error) {
	detail := &RunDetail{Slots: make(map[string]string)}

	var started string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, input_type, started, report, error_count FROM runs WHERE id = ?`, runID,
	).Scan(&detail.ID, &detail.Query, &detail.InputType, &started, &detail.Report, &detail.Errors)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run: %w", err)
	}
	detail.Started, _ = time.Parse(time.RFC3339Nano, started)

	slotRows, err := s.db.QueryContext(ctx,
		`SELECT slot, content FROM slots WHERE run_id = ? ORDER BY slot`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading slots: %w", err)
	}
	defer slotRows.Close()
	for slotRows.Next() {
		var slot, content string
		if err := slotRows.Scan(&slot, &content); err != nil {
			return nil, fmt.Errorf("scanning slot: %w", err)
		}
		detail.Slots[slot] = content
	}
	if err := slotRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slots: %w", err)
	}

	traceRows, err := s.db.QueryContext(ctx,
		`SELECT trace FROM traces WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading traces: %w", err)
	}
	defer traceRows.Close()
	for traceRows.Next() {
		var trace string
		if err := traceRows.Scan(&trace); err != nil {
			return nil, fmt.Errorf("scanning trace: %w", err)
		}
		detail.Traces = append(detail.Traces, trace)
	}
	if err := traceRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating traces: %w", err)
	}

	return detail, nil
}

// SearchReports runs an FTS5 match over stored report text (R5).
func (s *Store) SearchReports(ctx context.Context, query string) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.query, r.input_type, r.started, r.error_count
		 FROM runs_fts f JOIN runs r ON r.rowid = f.rowid
		 WHERE runs_fts MATCH ?
		 ORDER BY rank LIMIT ?`, query, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching reports: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]RunSummary, error) {
	var summaries []RunSummary
	for rows.Next() {
		var rs RunSummary
		var started string
		if err := rows.Scan(&rs.ID, &rs.Query, &rs.InputType, &started, &rs.Errors); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		rs.Started, _ = time.Parse(time.RFC3339Nano, started)
		summaries = append(summaries, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return summaries, nil
}
