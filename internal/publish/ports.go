package publish

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bookpublish/internal/entity"
	"bookpublish/internal/epub"
	"bookpublish/internal/isbn"
	"bookpublish/internal/kdp"
	"bookpublish/internal/lulu"
)

// ErrRunNotFound is returned by RunStore.GetRun.
var ErrRunNotFound = fmt.Errorf("export run %w", entity.ErrNotFound)

// Run is the persisted history record of one export.
type Run struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	State      State      `json:"state"`
	Formats    []Format   `json:"formats"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Error      string     `json:"error,omitempty"`
}

// RunStore keeps export run history.
type RunStore interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
}

// ISBNAssigner is the part of the ISBN manager the orchestrator uses.
type ISBNAssigner interface {
	Assign(ctx context.Context, bookID string, format isbn.Format) (isbn.Record, error)
	AssignExisting(ctx context.Context, bookID string, format isbn.Format, code string) (isbn.Record, error)
}

type EPUBGenerator interface {
	Generate(ctx context.Context, book entity.Book, opts epub.Options) (epub.Output, error)
}

type KDPGenerator interface {
	Generate(ctx context.Context, book entity.Book, opts kdp.Options) (kdp.Result, error)
}

type LuluGenerator interface {
	Generate(ctx context.Context, book entity.Book, opts lulu.Options) (lulu.Result, error)
}

// MemoryRunStore keeps runs in process memory.
type MemoryRunStore struct {
	mu   sync.Mutex
	runs map[string]Run
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: map[string]Run{}}
}

func (s *MemoryRunStore) CreateRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *MemoryRunStore) UpdateRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return ErrRunNotFound
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *MemoryRunStore) GetRun(_ context.Context, id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	out := cloneRun(&run)
	return &out, nil
}

func cloneRun(run *Run) Run {
	out := *run
	out.Formats = append([]Format(nil), run.Formats...)
	if run.FinishedAt != nil {
		t := *run.FinishedAt
		out.FinishedAt = &t
	}
	return out
}
