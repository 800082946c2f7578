package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLArchive persists analyses in PostgreSQL or SQLite.
type SQLArchive struct {
	db     *sql.DB
	driver string
}

// OpenSQL connects to driver ("postgres" or "sqlite") and creates the
// analyses table if needed.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLArchive, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	var payloadType string
	switch driver {
	case "postgres":
		payloadType = "JSONB"
	case "sqlite":
		payloadType = "TEXT"
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// single connection; an in-memory database lives only as long as it
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			patient_code TEXT NOT NULL,
			exercise TEXT NOT NULL,
			source TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			active_side TEXT NOT NULL,
			severity INTEGER NOT NULL,
			payload ` + payloadType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_patient ON analyses(patient_code, created_at)`,
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create analyses table: %w", err)
		}
	}

	log.Printf("store: using %s archive", driver)
	return &SQLArchive{db: db, driver: driver}, nil
}

func (a *SQLArchive) placeholders() func() string {
	if a.driver == "postgres" {
		n := 0
		return func() string {
			n++
			return fmt.Sprintf("$%d", n)
		}
	}
	return func() string { return "?" }
}

func (a *SQLArchive) Save(ctx context.Context, r *Record) error {
	payload, err := json.Marshal(r.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	ph := a.placeholders()
	query := fmt.Sprintf(`INSERT INTO analyses
		(id, patient_code, exercise, source, created_at, active_side, severity, payload)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
		ph(), ph(), ph(), ph(), ph(), ph(), ph(), ph())

	_, err = a.db.ExecContext(ctx, query,
		r.ID,
		r.PatientCode,
		r.Exercise,
		r.Source,
		r.CreatedAt.UnixMilli(),
		string(r.Analysis.Report.ActiveSide),
		r.Analysis.Diagnosis.SeverityScore,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis %s: %w", r.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, patient_code, exercise, source, created_at, payload FROM analyses`

func (a *SQLArchive) Get(ctx context.Context, id string) (*Record, error) {
	ph := a.placeholders()
	row := a.db.QueryRowContext(ctx, selectColumns+` WHERE id = `+ph(), id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %s: %w", id, err)
	}
	return r, nil
}

func (a *SQLArchive) ListByPatient(ctx context.Context, patient string) ([]*Record, error) {
	ph := a.placeholders()
	rows, err := a.db.QueryContext(ctx,
		selectColumns+` WHERE patient_code = `+ph()+` ORDER BY created_at DESC`, patient)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (a *SQLArchive) Close() error {
	return a.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		r       Record
		created int64
		payload []byte
	)
	if err := s.Scan(&r.ID, &r.PatientCode, &r.Exercise, &r.Source, &created, &payload); err != nil {
		return nil, err
	}
	r.CreatedAt = time.UnixMilli(created).UTC()
	if err := json.Unmarshal(payload, &r.Analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return &r, nil
}
