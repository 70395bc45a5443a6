package isbn

import (
	"errors"
	"fmt"
	"time"

	"bookpublish/internal/entity"
)

// ErrNotFound is returned when no record exists for a (book, format) pair.
var ErrNotFound = fmt.Errorf("isbn record %w", entity.ErrNotFound)

// ErrPoolExhausted is returned when the registrant prefix has no publication
// numbers left.
var ErrPoolExhausted = errors.New("isbn pool exhausted")

// Format is the edition an ISBN identifies. Each edition needs its own ISBN.
type Format string

const (
	FormatEPUB  Format = "epub"
	FormatPrint Format = "print"
)

func (f Format) Valid() bool {
	return f == FormatEPUB || f == FormatPrint
}

// Record is an assigned ISBN. Records are created once per (book, format)
// and never mutated.
type Record struct {
	BookID     string    `json:"book_id"`
	Format     Format    `json:"format"`
	ISBN13     string    `json:"isbn13"`
	ISBN10     string    `json:"isbn10,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Hyphenated returns the display form of the ISBN-13.
func (r Record) Hyphenated() string {
	return Hyphenate(r.ISBN13)
}
