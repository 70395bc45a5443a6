package isbn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteConstraintUnique is SQLITE_CONSTRAINT_UNIQUE.
const sqliteConstraintUnique = 2067

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS isbn_records (
    book_id     TEXT NOT NULL,
    format      TEXT NOT NULL CHECK (format IN ('epub', 'print')),
    isbn13      TEXT NOT NULL UNIQUE,
    isbn10      TEXT NOT NULL DEFAULT '',
    assigned_at TEXT NOT NULL,
    PRIMARY KEY (book_id, format)
);
CREATE TABLE IF NOT EXISTS isbn_sequence (
    id INTEGER PRIMARY KEY AUTOINCREMENT
);`

// SQLiteRepo stores records in a local SQLite file, the default store of the
// publish CLI.
type SQLiteRepo struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection; a single connection also serializes writers.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init isbn schema: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (Record, error) {
	var rec Record
	var format, assignedAt string
	if err := row.Scan(&rec.BookID, &format, &rec.ISBN13, &rec.ISBN10, &assignedAt); err != nil {
		return Record{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, assignedAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse assigned_at: %w", err)
	}
	rec.Format = Format(format)
	rec.AssignedAt = at.UTC()
	return rec, nil
}

func (r *SQLiteRepo) Get(ctx context.Context, bookID string, format Format) (Record, error) {
	rec, err := scanSQLiteRecord(r.db.QueryRowContext(ctx,
		`SELECT book_id, format, isbn13, isbn10, assigned_at FROM isbn_records WHERE book_id = ? AND format = ?`,
		bookID, string(format),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func isUniqueViolation(err error) bool {
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteConstraintUnique {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *SQLiteRepo) InsertIfAbsent(ctx context.Context, rec Record) (Record, bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO isbn_records (book_id, format, isbn13, isbn10, assigned_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (book_id, format) DO NOTHING`,
		rec.BookID, string(rec.Format), rec.ISBN13, rec.ISBN10, rec.AssignedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Record{}, false, ErrISBNInUse
		}
		return Record{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, false, err
	}
	if n == 1 {
		return rec, true, nil
	}
	existing, err := r.Get(ctx, rec.BookID, rec.Format)
	return existing, false, err
}

func (r *SQLiteRepo) List(ctx context.Context, bookID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT book_id, format, isbn13, isbn10, assigned_at FROM isbn_records WHERE book_id = ? ORDER BY format`,
		bookID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) NextSequence(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO isbn_sequence DEFAULT VALUES`)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
