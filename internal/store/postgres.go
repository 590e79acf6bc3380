package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/timelocker/tracker/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"insert_run": `INSERT INTO analysis_runs (` + runColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"get_run":    `SELECT ` + runColumns + ` FROM analysis_runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	note_id        TEXT NOT NULL,
	attachment_id  TEXT NOT NULL,
	object_key     TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	score          BIGINT NOT NULL DEFAULT 0,
	character_name TEXT NOT NULL DEFAULT '',
	error          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analysis_runs_status ON analysis_runs(status);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_note_id ON analysis_runs(note_id);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_attachment ON analysis_runs(attachment_id, created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) RecordRun(ctx context.Context, run *model.AnalysisRun) error {
	prepareRun(run)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_runs (`+runColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.NoteID, run.AttachmentID, run.ObjectKey, string(run.Status),
		int64(run.Score), run.Character, run.Error, run.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert run for attachment %s", run.AttachmentID)
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error) {
	r, err := scanPgRun(s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM analysis_runs WHERE id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.NoteID != "" {
		query += fmt.Sprintf(` AND note_id = $%d`, argIdx)
		args = append(args, filter.NoteID)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) ListFailedNotes(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx, failedNotesQuery("$1", "$2"), string(model.RunStatusFailed), listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list failed notes")
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan note id")
		}
		notes = append(notes, id)
	}
	return notes, eris.Wrap(rows.Err(), "postgres: list failed notes iterate")
}

func scanPgRun(row pgx.Row) (*model.AnalysisRun, error) {
	var r model.AnalysisRun
	var status string
	var score int64
	if err := row.Scan(&r.ID, &r.NoteID, &r.AttachmentID, &r.ObjectKey, &status,
		&score, &r.Character, &r.Error, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)
	r.Score = int(score)
	return &r, nil
}
