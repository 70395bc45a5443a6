package publish

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTimeout = 5 * time.Second

// PostgresRunStore persists runs in the export_runs table.
type PostgresRunStore struct {
	db *pgxpool.Pool
}

func NewPostgresRunStore(db *pgxpool.Pool) *PostgresRunStore {
	return &PostgresRunStore{db: db}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultTimeout)
}

func formatStrings(formats []Format) []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}

func (r *PostgresRunStore) CreateRun(ctx context.Context, run *Run) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const sql = `
		INSERT INTO export_runs (id, book_id, state, formats, started_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, sql, run.ID, run.BookID, string(run.State), formatStrings(run.Formats), run.StartedAt)
	return err
}

func (r *PostgresRunStore) UpdateRun(ctx context.Context, run *Run) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const sql = `
		UPDATE export_runs SET
			state = $1,
			finished_at = $2,
			succeeded = $3,
			failed = $4,
			error = $5
		WHERE id = $6`
	tag, err := r.db.Exec(ctx, sql, string(run.State), run.FinishedAt, run.Succeeded, run.Failed, run.Error, run.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (r *PostgresRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRunNotFound
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const sql = `
		SELECT id::text, book_id, state, formats, started_at, finished_at, succeeded, failed, error
		FROM export_runs
		WHERE id = $1`
	var (
		run     Run
		state   string
		formats []string
	)
	err := r.db.QueryRow(ctx, sql, id).Scan(&run.ID, &run.BookID, &state, &formats, &run.StartedAt, &run.FinishedAt, &run.Succeeded, &run.Failed, &run.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	run.State = State(state)
	for _, f := range formats {
		run.Formats = append(run.Formats, Format(f))
	}
	return &run, nil
}
