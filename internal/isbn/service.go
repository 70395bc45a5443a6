package isbn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bookpublish/internal/entity"
)

// ErrAlreadyAssigned is returned by AssignExisting when the edition already
// carries a different ISBN. Records are never replaced.
var ErrAlreadyAssigned = fmt.Errorf("%w: edition already has an ISBN", entity.ErrConflict)

// maxAssignAttempts bounds how many already-registered publication numbers
// Assign skips before giving up.
const maxAssignAttempts = 8

// Manager assigns ISBNs from a registrant prefix and records them per
// (book, format).
type Manager struct {
	repo   Repository
	prefix string
	width  int
	now    func() time.Time
	log    *slog.Logger
}

type Option func(*Manager)

// WithClock overrides the assignment timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager validates prefix, the 978/979 prefix plus registration group
// and registrant digits, e.g. "978-1-7361". The remaining digits up to
// twelve form the publication number.
func NewManager(repo Repository, prefix string, opts ...Option) (*Manager, error) {
	p := Normalize(prefix)
	if !allDigits(p) || len(p) < 5 || len(p) > 11 || !(strings.HasPrefix(p, "978") || strings.HasPrefix(p, "979")) {
		return nil, &entity.InvalidInputError{Field: "isbn_prefix", Reason: fmt.Sprintf("%q must be 978/979 followed by group and registrant digits", prefix)}
	}
	m := &Manager{
		repo:   repo,
		prefix: p,
		width:  12 - len(p),
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Capacity is the number of publication numbers the prefix can hold.
func (m *Manager) Capacity() int64 {
	c := int64(1)
	for i := 0; i < m.width; i++ {
		c *= 10
	}
	return c
}

func (m *Manager) compose(seq int64) (string, error) {
	if seq < 0 || seq >= m.Capacity() {
		return "", fmt.Errorf("%w: publication number %d exceeds prefix %s", ErrPoolExhausted, seq, m.prefix)
	}
	body := m.prefix + fmt.Sprintf("%0*d", m.width, seq)
	return body + string(CheckDigit13(body)), nil
}

func newRecord(bookID string, format Format, isbn13 string, at time.Time) Record {
	rec := Record{BookID: bookID, Format: format, ISBN13: isbn13, AssignedAt: at.UTC().Truncate(time.Microsecond)}
	if isbn10, err := Convert13To10(isbn13); err == nil {
		rec.ISBN10 = isbn10
	}
	return rec
}

func checkKey(bookID string, format Format) error {
	if strings.TrimSpace(bookID) == "" {
		return &entity.InvalidInputError{Field: "book_id", Reason: "must not be empty"}
	}
	if !format.Valid() {
		return &entity.InvalidInputError{Field: "format", Reason: fmt.Sprintf("unknown ISBN format %q", format)}
	}
	return nil
}

// Assign returns the record for (bookID, format), allocating a new ISBN on
// the first call. Repeated calls return the identical record.
func (m *Manager) Assign(ctx context.Context, bookID string, format Format) (Record, error) {
	if err := checkKey(bookID, format); err != nil {
		return Record{}, err
	}

	existing, err := m.repo.Get(ctx, bookID, format)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Record{}, fmt.Errorf("lookup isbn: %w", err)
	}

	for attempt := 1; ; attempt++ {
		seq, err := m.repo.NextSequence(ctx)
		if err != nil {
			return Record{}, fmt.Errorf("next publication number: %w", err)
		}
		code, err := m.compose(seq)
		if err != nil {
			return Record{}, err
		}

		stored, created, err := m.repo.InsertIfAbsent(ctx, newRecord(bookID, format, code, m.now()))
		if errors.Is(err, ErrISBNInUse) && attempt < maxAssignAttempts {
			// A purchased ISBN registered with AssignExisting can hold a
			// number from our own prefix. Skip it.
			m.log.Warn("pool isbn already registered, skipping", "isbn", Hyphenate(code), "book_id", bookID)
			continue
		}
		if err != nil {
			return Record{}, fmt.Errorf("store isbn: %w", err)
		}
		if created {
			m.log.Info("isbn assigned", "book_id", bookID, "format", format, "isbn", stored.Hyphenated())
		}
		return stored, nil
	}
}

// AssignExisting records an externally purchased ISBN-10 or ISBN-13 for the
// edition. Malformed codes fail with InvalidISBNError and are never
// corrected. Re-registering the same code is a no-op.
func (m *Manager) AssignExisting(ctx context.Context, bookID string, format Format, code string) (Record, error) {
	if err := checkKey(bookID, format); err != nil {
		return Record{}, err
	}
	isbn13, err := ToISBN13(code)
	if err != nil {
		return Record{}, err
	}

	stored, created, err := m.repo.InsertIfAbsent(ctx, newRecord(bookID, format, isbn13, m.now()))
	if err != nil {
		return Record{}, fmt.Errorf("store isbn: %w", err)
	}
	if !created && stored.ISBN13 != isbn13 {
		return stored, fmt.Errorf("%w: %s %s is %s", ErrAlreadyAssigned, bookID, format, stored.Hyphenated())
	}
	if created {
		m.log.Info("isbn registered", "book_id", bookID, "format", format, "isbn", stored.Hyphenated())
	}
	return stored, nil
}

// List returns every record of the book ordered by format.
func (m *Manager) List(ctx context.Context, bookID string) ([]Record, error) {
	if strings.TrimSpace(bookID) == "" {
		return nil, &entity.InvalidInputError{Field: "book_id", Reason: "must not be empty"}
	}
	return m.repo.List(ctx, bookID)
}
