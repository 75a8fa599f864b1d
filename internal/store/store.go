/*
Package store persists assessment run history.

Each saved run is one row: when it ran, what was analyzed, the scalar
per-dimension scores and the composite risk grade, plus the full report
JSON for later retrieval. The history powers the `history` command and
supplies score samples for cross-run correlation.

The database lives at ~/.entrain/history.db by default and uses
modernc.org/sqlite (pure Go, CGo-free).
*/
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/entrainlab/entrain/internal/models"
)

// Run is one saved assessment, summarized for listing.
type Run struct {
	ID            string
	CreatedAt     time.Time
	Source        string
	Conversations int
	Events        int
	RiskScore     *float64
	RiskLevel     string
	Scores        map[string]float64
}

// Store is a SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// DefaultPath returns ~/.entrain/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".entrain", "history.db"), nil
}

// Open opens (creating if needed) the history database at path and runs
// pending migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun persists a report with its reduced per-dimension scores and
// returns the new run id.
func (s *Store) SaveRun(report *models.EntrainReport, scores map[string]float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	id := uuid.NewString()
	createdAt := report.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var riskScore *float64
	var riskLevel string
	if report.CrossDimensional != nil {
		score := report.CrossDimensional.Risk.Score
		riskScore = &score
		riskLevel = string(report.CrossDimensional.Risk.Level)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, created_at, source, conversations, events, risk_score, risk_level, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, createdAt.UTC().Format(time.RFC3339), report.Input.Source,
		report.Input.Conversations, report.Input.Events, riskScore, riskLevel, string(raw))
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for dim, score := range scores {
		if _, err := tx.Exec(`
			INSERT INTO run_scores (run_id, dimension, score) VALUES (?, ?, ?)
		`, id, dim, score); err != nil {
			return "", fmt.Errorf("inserting score for %s: %w", dim, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// ListRuns returns saved runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT id, created_at, source, conversations, events, risk_score, risk_level
		FROM runs ORDER BY created_at DESC, id
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt string
		var riskScore sql.NullFloat64
		var riskLevel sql.NullString
		if err := rows.Scan(&r.ID, &createdAt, &r.Source, &r.Conversations, &r.Events, &riskScore, &riskLevel); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if riskScore.Valid {
			v := riskScore.Float64
			r.RiskScore = &v
		}
		r.RiskLevel = riskLevel.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	for i := range runs {
		scores, err := s.runScores(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Scores = scores
	}
	return runs, nil
}

// GetRun retrieves the full stored report for one run.
func (s *Store) GetRun(id string) (*models.EntrainReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	err := s.db.QueryRow("SELECT report_json FROM runs WHERE id = ?", id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run: %w", err)
	}

	var report models.EntrainReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("decoding stored report: %w", err)
	}
	return &report, nil
}

// DeleteRun removes one saved run.
func (s *Store) DeleteRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	_, err = s.db.Exec("DELETE FROM run_scores WHERE run_id = ?", id)
	return err
}

// ScoreSamples returns per-run dimension score maps in chronological
// order, the shape the correlation engine takes as samples. limit <= 0
// means all runs.
func (s *Store) ScoreSamples(limit int) ([]map[string]float64, error) {
	runs, err := s.ListRuns(limit)
	if err != nil {
		return nil, err
	}
	// ListRuns is newest-first; correlation wants chronological.
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})

	var samples []map[string]float64
	for _, r := range runs {
		if len(r.Scores) > 0 {
			samples = append(samples, r.Scores)
		}
	}
	return samples, nil
}

func (s *Store) runScores(runID string) (map[string]float64, error) {
	rows, err := s.db.Query("SELECT dimension, score FROM run_scores WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("loading run scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var dim string
		var score float64
		if err := rows.Scan(&dim, &score); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		scores[dim] = score
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, nil
	}
	return scores, nil
}

// runMigrations applies schema migrations in order.
func (s *Store) runMigrations() error {
	if err := s.createMigrationsTable(); err != nil {
		return err
	}
	version, err := s.currentMigrationVersion()
	if err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "initial_schema", up: s.migration001InitialSchema},
	}
	for _, m := range migrations {
		if version < m.version {
			log.Printf("Running migration %d: %s", m.version, m.name)
			if err := m.up(); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(m.version, m.name); err != nil {
				return err
			}
		}
	}
	return nil
}

type migration struct {
	version int
	name    string
	up      func() error
}

func (s *Store) createMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	return err
}

func (s *Store) currentMigrationVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *Store) setMigrationVersion(version int, name string) error {
	_, err := s.db.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", version, name)
	return err
}

func (s *Store) migration001InitialSchema() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			conversations INTEGER NOT NULL,
			events INTEGER NOT NULL,
			risk_score REAL,
			risk_level TEXT,
			report_json TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at DESC)
	`); err != nil {
		return fmt.Errorf("failed to create runs timestamp index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_scores (
			run_id TEXT NOT NULL,
			dimension TEXT NOT NULL,
			score REAL NOT NULL,
			PRIMARY KEY (run_id, dimension)
		)
	`); err != nil {
		return fmt.Errorf("failed to create run_scores table: %w", err)
	}
	return nil
}
