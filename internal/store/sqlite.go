package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/timelocker/tracker/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id             TEXT PRIMARY KEY,
	note_id        TEXT NOT NULL,
	attachment_id  TEXT NOT NULL,
	object_key     TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	score          INTEGER NOT NULL DEFAULT 0,
	character_name TEXT NOT NULL DEFAULT '',
	error          TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analysis_runs_status ON analysis_runs(status);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_note_id ON analysis_runs(note_id);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_attachment ON analysis_runs(attachment_id, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run *model.AnalysisRun) error {
	prepareRun(run)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_runs (id, note_id, attachment_id, object_key, status, score, character_name, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.NoteID, run.AttachmentID, run.ObjectKey, string(run.Status),
		run.Score, run.Character, run.Error, run.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert run for attachment %s", run.AttachmentID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM analysis_runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.NoteID != "" {
		query += ` AND note_id = ?`
		args = append(args, filter.NoteID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) ListFailedNotes(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, failedNotesQuery("?", "?"), string(model.RunStatusFailed), listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list failed notes")
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan note id")
		}
		notes = append(notes, id)
	}
	return notes, eris.Wrap(rows.Err(), "sqlite: list failed notes iterate")
}

const runColumns = `id, note_id, attachment_id, object_key, status, score, character_name, error, created_at`

// failedNotesQuery selects notes with an attachment whose most recent run
// failed. statusArg and limitArg are the driver's placeholders.
func failedNotesQuery(statusArg, limitArg string) string {
	return `SELECT r.note_id FROM analysis_runs r
WHERE r.status = ` + statusArg + `
  AND NOT EXISTS (
    SELECT 1 FROM analysis_runs later
    WHERE later.attachment_id = r.attachment_id AND later.created_at > r.created_at
  )
GROUP BY r.note_id
ORDER BY MIN(r.created_at)
LIMIT ` + limitArg
}

func prepareRun(run *model.AnalysisRun) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.AnalysisRun, error) {
	var r model.AnalysisRun
	var status string
	if err := row.Scan(&r.ID, &r.NoteID, &r.AttachmentID, &r.ObjectKey, &status,
		&r.Score, &r.Character, &r.Error, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)
	return &r, nil
}
