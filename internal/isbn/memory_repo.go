package isbn

import (
	"context"
	"sort"
	"sync"
)

type key struct {
	bookID string
	format Format
}

// MemoryRepo keeps records in process memory. It backs tests and one-shot CLI
// runs that do not need persistence.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[key]Record
	byISBN  map[string]key
	seq     int64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: map[key]Record{}, byISBN: map[string]key{}}
}

func (r *MemoryRepo) Get(_ context.Context, bookID string, format Format) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key{bookID, format}]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) InsertIfAbsent(_ context.Context, rec Record) (Record, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{rec.BookID, rec.Format}
	if existing, ok := r.records[k]; ok {
		return existing, false, nil
	}
	if _, taken := r.byISBN[rec.ISBN13]; taken {
		return Record{}, false, ErrISBNInUse
	}
	r.records[k] = rec
	r.byISBN[rec.ISBN13] = k
	return rec, true, nil
}

func (r *MemoryRepo) List(_ context.Context, bookID string) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for k, rec := range r.records {
		if k.bookID == bookID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Format < out[j].Format })
	return out, nil
}

func (r *MemoryRepo) NextSequence(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}
