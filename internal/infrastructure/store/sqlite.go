// Package store persists harvest runs and their unified tables in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/myfcd/harvester/internal/domain"
)

// ErrRunNotFound is returned when no run matches the request
var ErrRunNotFound = errors.New("harvest run not found")

// timeLayout is fixed width so timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	foods       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_sources (
	run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	source     TEXT NOT NULL,
	discovered INTEGER NOT NULL,
	harvested  INTEGER NOT NULL,
	skipped    INTEGER NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);
CREATE TABLE IF NOT EXISTS skipped_items (
	run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	source     TEXT NOT NULL,
	identifier TEXT NOT NULL,
	url        TEXT NOT NULL,
	stage      TEXT NOT NULL,
	reason     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS foods (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	name   TEXT NOT NULL,
	PRIMARY KEY (run_id, name)
);
CREATE TABLE IF NOT EXISTS nutrients (
	run_id   TEXT NOT NULL,
	food     TEXT NOT NULL,
	nutrient TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (run_id, food, nutrient),
	FOREIGN KEY (run_id, food) REFERENCES foods(run_id, name) ON DELETE CASCADE
);
`

// Store manages the run database
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and creates the schema if needed
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a run, its per-source counts, skipped items and merged table
// in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *domain.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, foods) VALUES (?, ?, ?, ?)`,
		run.RunID, formatTime(run.StartedAt), formatTime(run.FinishedAt), len(run.Table),
	); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i, src := range run.Sources {
		errText := ""
		if src.Err != nil {
			errText = src.Err.Error()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_sources (run_id, position, source, discovered, harvested, skipped, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, i, src.Source, src.Discovered, src.Harvested(), len(src.Skipped), errText,
		); err != nil {
			return fmt.Errorf("inserting source %s: %w", src.Source, err)
		}

		for _, item := range src.Skipped {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO skipped_items (run_id, source, identifier, url, stage, reason) VALUES (?, ?, ?, ?, ?, ?)`,
				run.RunID, src.Source, item.Identifier, item.URL, item.Stage, item.Reason(),
			); err != nil {
				return fmt.Errorf("inserting skipped item %s: %w", item.Identifier, err)
			}
		}
	}

	foodStmt, err := tx.PrepareContext(ctx, `INSERT INTO foods (run_id, name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing food insert: %w", err)
	}
	defer foodStmt.Close()

	nutrientStmt, err := tx.PrepareContext(ctx, `INSERT INTO nutrients (run_id, food, nutrient, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing nutrient insert: %w", err)
	}
	defer nutrientStmt.Close()

	for _, name := range run.Table.Names() {
		if _, err := foodStmt.ExecContext(ctx, run.RunID, name); err != nil {
			return fmt.Errorf("inserting food %q: %w", name, err)
		}
		for nutrient, value := range run.Table[name].Nutrients {
			encoded, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("encoding %q/%q: %w", name, nutrient, err)
			}
			if _, err := nutrientStmt.ExecContext(ctx, run.RunID, name, nutrient, string(encoded)); err != nil {
				return fmt.Errorf("inserting %q/%q: %w", name, nutrient, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}

	log.Printf("[STORE] Saved run %s (%d foods)", run.RunID, len(run.Table))
	return nil
}

// LatestRun returns the summary of the most recently started run
func (s *Store) LatestRun(ctx context.Context) (*domain.RunSummary, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`,
	).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}
	return s.Run(ctx, runID)
}

// Run returns the summary of one run
func (s *Store) Run(ctx context.Context, runID string) (*domain.RunSummary, error) {
	var started, finished string
	summary := &domain.RunSummary{RunID: runID}
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, finished_at, foods FROM runs WHERE run_id = ?`, runID,
	).Scan(&started, &finished, &summary.Foods)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}
	if summary.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if summary.FinishedAt, err = parseTime(finished); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, discovered, harvested, skipped, error FROM run_sources WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sources of run %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var stat domain.SourceStats
		if err := rows.Scan(&stat.Source, &stat.Discovered, &stat.Harvested, &stat.Skipped, &stat.Error); err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		summary.Sources = append(summary.Sources, stat)
	}
	return summary, rows.Err()
}

// LoadTable rebuilds the unified table of a run
func (s *Store) LoadTable(ctx context.Context, runID string) (domain.FoodTable, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}

	table := make(domain.FoodTable)
	foodRows, err := s.db.QueryContext(ctx, `SELECT name FROM foods WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying foods: %w", err)
	}
	defer foodRows.Close()
	for foodRows.Next() {
		var name string
		if err := foodRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning food row: %w", err)
		}
		table[name] = domain.FoodRecord{Name: name, Nutrients: domain.Nutrients{}}
	}
	if err := foodRows.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT food, nutrient, value FROM nutrients WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying nutrients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var food, nutrient, encoded string
		if err := rows.Scan(&food, &nutrient, &encoded); err != nil {
			return nil, fmt.Errorf("scanning nutrient row: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(encoded), &value); err != nil {
			return nil, fmt.Errorf("decoding %q/%q: %w", food, nutrient, err)
		}
		table[food].Nutrients[nutrient] = value
	}
	return table, rows.Err()
}

// SkippedItems returns the items a run skipped, in insertion order
func (s *Store) SkippedItems(ctx context.Context, runID string) ([]domain.SkippedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identifier, url, stage, reason FROM skipped_items WHERE run_id = ? ORDER BY rowid`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying skipped items: %w", err)
	}
	defer rows.Close()

	var items []domain.SkippedItem
	for rows.Next() {
		var item domain.SkippedItem
		var reason string
		if err := rows.Scan(&item.Identifier, &item.URL, &item.Stage, &reason); err != nil {
			return nil, fmt.Errorf("scanning skipped item: %w", err)
		}
		if reason != "" {
			item.Err = errors.New(reason)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
