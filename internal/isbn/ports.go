package isbn

import (
	"context"
	"fmt"

	"bookpublish/internal/entity"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks bookpublish/internal/isbn Repository

// ErrISBNInUse is returned when an ISBN is already recorded for another
// (book, format) pair.
var ErrISBNInUse = fmt.Errorf("%w: isbn already assigned to another edition", entity.ErrConflict)

// Repository persists ISBN records. Implementations must make
// InsertIfAbsent atomic: concurrent inserts for the same (book, format) pair
// all observe the single stored record.
type Repository interface {
	Get(ctx context.Context, bookID string, format Format) (Record, error)
	// InsertIfAbsent stores rec unless a record for (rec.BookID, rec.Format)
	// already exists. It returns the stored record and whether rec was the
	// one written.
	InsertIfAbsent(ctx context.Context, rec Record) (Record, bool, error)
	List(ctx context.Context, bookID string) ([]Record, error)
	// NextSequence hands out publication numbers. Values are unique but may
	// have gaps.
	NextSequence(ctx context.Context) (int64, error)
}
