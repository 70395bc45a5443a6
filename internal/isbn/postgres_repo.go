package isbn

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var format string
	if err := row.Scan(&rec.BookID, &format, &rec.ISBN13, &rec.ISBN10, &rec.AssignedAt); err != nil {
		return Record{}, err
	}
	rec.Format = Format(format)
	rec.AssignedAt = rec.AssignedAt.UTC()
	return rec, nil
}

func (r *PostgresRepo) Get(ctx context.Context, bookID string, format Format) (Record, error) {
	const query = `
		SELECT book_id, format, isbn13, COALESCE(isbn10, ''), assigned_at
		FROM isbn_records
		WHERE book_id = $1 AND format = $2`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rec, err := scanRecord(r.db.QueryRow(timeoutCtx, query, bookID, string(format)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// InsertIfAbsent relies on the (book_id, format) primary key. When another
// transaction wins the insert, the conflicting row is read back.
func (r *PostgresRepo) InsertIfAbsent(ctx context.Context, rec Record) (Record, bool, error) {
	const sql = `
		INSERT INTO isbn_records (book_id, format, isbn13, isbn10, assigned_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (book_id, format) DO NOTHING
		RETURNING book_id, format, isbn13, COALESCE(isbn10, ''), assigned_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	stored, err := scanRecord(r.db.QueryRow(timeoutCtx, sql,
		rec.BookID, string(rec.Format), rec.ISBN13, rec.ISBN10, rec.AssignedAt,
	))
	switch {
	case err == nil:
		return stored, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		existing, getErr := r.Get(ctx, rec.BookID, rec.Format)
		return existing, false, getErr
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Record{}, false, ErrISBNInUse
		}
		return Record{}, false, err
	}
}

func (r *PostgresRepo) List(ctx context.Context, bookID string) ([]Record, error) {
	const query = `
		SELECT book_id, format, isbn13, COALESCE(isbn10, ''), assigned_at
		FROM isbn_records
		WHERE book_id = $1
		ORDER BY format`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) NextSequence(ctx context.Context) (int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var n int64
	err := r.db.QueryRow(timeoutCtx, `SELECT nextval('isbn_publication_seq')`).Scan(&n)
	return n, err
}
