package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	participant TEXT NOT NULL,
	visit       INTEGER NOT NULL,
	mode        TEXT NOT NULL,
	data_file   TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	status      TEXT NOT NULL,
	trials      INTEGER NOT NULL DEFAULT 0,
	accuracy    REAL,
	barcode     TEXT
)`

// Session states recorded in the registry.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusAborted  = "aborted"
	StatusFailed   = "failed"
)

// Session is one row of the registry.
type Session struct {
	ID          string
	Participant string
	Visit       int
	Mode        string
	DataFile    string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      string
	Trials      int
	Accuracy    Rate
	Barcode     []string
}

// Registry indexes runs in a SQLite database so an operator can see which
// visits a participant has done.
type Registry struct {
	db *sql.DB
}

func OpenRegistry(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, sessionsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &Registry{db: db}, nil
}

func (r *Registry) Close() error {
	return r.db.Close()
}

// Start records a running session and returns its id.
func (r *Registry) Start(ctx context.Context, participant string, visit int, mode, dataFile string, at time.Time) (string, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, participant, visit, mode, data_file, started_at, status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, participant, visit, mode, dataFile, at.UTC().Format(TimeLayout), StatusRunning)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// SetBarcode stores the photodiode pulse times of a session.
func (r *Registry) SetBarcode(ctx context.Context, id string, stamps []string) error {
	data, err := json.Marshal(stamps)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE sessions SET barcode = ? WHERE id = ?`, string(data), id); err != nil {
		return fmt.Errorf("update barcode of %s: %w", id, err)
	}
	return nil
}

// Finish closes a session with its final status and outcome.
func (r *Registry) Finish(ctx context.Context, id, status string, trials int, acc Rate, at time.Time) error {
	var accuracy sql.NullFloat64
	if acc.Valid {
		accuracy = sql.NullFloat64{Float64: acc.Value, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET finished_at = ?, status = ?, trials = ?, accuracy = ? WHERE id = ?`,
		at.UTC().Format(TimeLayout), status, trials, accuracy, id)
	if err != nil {
		return fmt.Errorf("finish session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish session %s: no such session", id)
	}
	return nil
}

// List returns sessions, newest first. An empty participant lists all.
func (r *Registry) List(ctx context.Context, participant string) ([]Session, error) {
	q := `SELECT id, participant, visit, mode, data_file, started_at, finished_at, status, trials, accuracy, barcode FROM sessions`
	var args []any
	if participant != "" {
		q += ` WHERE participant = ?`
		args = append(args, participant)
	}
	q += ` ORDER BY started_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			s        Session
			started  string
			finished sql.NullString
			accuracy sql.NullFloat64
			barcode  sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Participant, &s.Visit, &s.Mode, &s.DataFile, &started, &finished, &s.Status, &s.Trials, &accuracy, &barcode); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.StartedAt, _ = time.Parse(TimeLayout, started)
		if finished.Valid {
			s.FinishedAt, _ = time.Parse(TimeLayout, finished.String)
		}
		if accuracy.Valid {
			s.Accuracy = Rate{Value: accuracy.Float64, Valid: true}
		}
		if barcode.Valid && barcode.String != "" {
			_ = json.Unmarshal([]byte(barcode.String), &s.Barcode)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
