package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"library-assessment/internal/model"
)

var ErrNotFound = errors.New("not found")

// SnapshotKind tells org-unit loads from report loads
type SnapshotKind string

const (
	KindOrgUnits SnapshotKind = "org-units"
	KindReport   SnapshotKind = "report"
)

// Snapshot is a raw load response as received, kept for session hydration
type Snapshot struct {
	ID         string           `json:"id"`
	Kind       SnapshotKind     `json:"kind"`
	ReportType model.ReportType `json:"reportType,omitempty"`
	LoadedAt   time.Time        `json:"loadedAt"`
	Range      model.DateRange  `json:"dateRange"`
	Payload    []byte           `json:"-"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Export is one CSV export written for a session
type Export struct {
	ID         string           `json:"id"`
	SessionID  string           `json:"sessionId"`
	ReportType model.ReportType `json:"reportType"`
	DrillLevel string           `json:"drillLevel"`
	RowCount   int              `json:"rowCount"`
	Path       string           `json:"path"`
	CreatedAt  time.Time        `json:"createdAt"`
}

type DB struct {
	db *sql.DB
}

// Open connects to the sqlite file at dbPath and creates missing tables
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// one connection: sqlite has a single writer and :memory: is per connection
	db.SetMaxOpenConns(1)

	snapshotTable := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		report_type TEXT NOT NULL DEFAULT '',
		loaded_at DATETIME NOT NULL,
		date_from TEXT NOT NULL DEFAULT '',
		date_to TEXT NOT NULL DEFAULT '',
		payload BLOB NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	snapshotIndex := `
	CREATE INDEX IF NOT EXISTS idx_snapshots_lookup
		ON snapshots (kind, report_type, date_from, date_to, loaded_at);
	`
	exportTable := `
	CREATE TABLE IF NOT EXISTS exports (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		report_type TEXT NOT NULL,
		drill_level TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		path TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`

	for _, stmt := range []string{snapshotTable, snapshotIndex, exportTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// SaveSnapshot stores a load response and returns its id
func (d *DB) SaveSnapshot(ctx context.Context, s Snapshot) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, kind, report_type, loaded_at, date_from, date_to, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Kind), string(s.ReportType), s.LoadedAt.UTC(), s.Range.From, s.Range.To, s.Payload, now)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return s.ID, nil
}

// LatestSnapshot returns the most recently loaded snapshot of a kind, report
// type and date range. Org-unit snapshots use an empty report type and range.
func (d *DB) LatestSnapshot(ctx context.Context, kind SnapshotKind, reportType model.ReportType, r model.DateRange) (Snapshot, error) {
	s := Snapshot{Kind: kind, ReportType: reportType, Range: r}
	err := d.db.QueryRowContext(ctx,
		`SELECT id, loaded_at, payload, created_at FROM snapshots
		WHERE kind = ? AND report_type = ? AND date_from = ? AND date_to = ?
		ORDER BY loaded_at DESC, created_at DESC LIMIT 1`,
		string(kind), string(reportType), r.From, r.To).
		Scan(&s.ID, &s.LoadedAt, &s.Payload, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %s snapshot %s", ErrNotFound, kind, reportType)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return s, nil
}

// SaveExport records a written export and returns its id
func (d *DB) SaveExport(ctx context.Context, e Export) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO exports (id, session_id, report_type, drill_level, row_count, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, string(e.ReportType), e.DrillLevel, e.RowCount, e.Path, e.CreatedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}
	return e.ID, nil
}

// ListExports returns exports newest first, optionally for one session
func (d *DB) ListExports(ctx context.Context, sessionID string, limit int) ([]Export, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, session_id, report_type, drill_level, row_count, path, created_at FROM exports`
	args := []interface{}{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	exports := []Export{}
	for rows.Next() {
		var e Export
		var reportType string
		if err := rows.Scan(&e.ID, &e.SessionID, &reportType, &e.DrillLevel, &e.RowCount, &e.Path, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ReportType = model.ReportType(reportType)
		exports = append(exports, e)
	}
	return exports, rows.Err()
}
