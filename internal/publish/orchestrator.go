package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"bookpublish/internal/entity"
	"bookpublish/internal/epub"
	"bookpublish/internal/isbn"
	"bookpublish/internal/kdp"
	"bookpublish/internal/lulu"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Deps wires the orchestrator. Generators left nil fail their format;
// Runs defaults to an in-memory store.
type Deps struct {
	EPUB    EPUBGenerator
	KDP     KDPGenerator
	Lulu    LuluGenerator
	ISBNs   ISBNAssigner
	Runs    RunStore
	Metrics *Metrics
	Logger  *slog.Logger
}

type Orchestrator struct {
	epub     EPUBGenerator
	kdp      KDPGenerator
	lulu     LuluGenerator
	isbns    ISBNAssigner
	runs     RunStore
	metrics  *Metrics
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithIDs(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		epub:     deps.EPUB,
		kdp:      deps.KDP,
		lulu:     deps.Lulu,
		isbns:    deps.ISBNs,
		runs:     deps.Runs,
		metrics:  deps.Metrics,
		validate: newValidator(),
		log:      deps.Logger,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	if o.runs == nil {
		o.runs = NewMemoryRunStore()
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Runs exposes the run history store.
func (o *Orchestrator) Runs() RunStore { return o.runs }

type isbnResult struct {
	rec isbn.Record
	err error
}

// Run exports book to every format in cfg. It returns an error only when
// cfg is invalid or the run cannot be recorded; generator failures are
// reported per format in the result and never abort the other formats.
func (o *Orchestrator) Run(ctx context.Context, book entity.Book, cfg Config, progress ProgressFunc) (res *ExportResult, err error) {
	if err := validateConfig(o.validate, cfg); err != nil {
		return nil, err
	}
	bookID := book.Metadata.BookID
	if strings.TrimSpace(bookID) == "" {
		return nil, &entity.InvalidInputError{Field: "metadata.book_id", Reason: "must not be empty"}
	}

	run := &Run{
		ID:        o.newID(),
		BookID:    bookID,
		State:     StatePending,
		Formats:   append([]Format(nil), cfg.Formats...),
		StartedAt: o.now().UTC(),
	}
	if err := o.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create export run: %w", err)
	}
	log := o.log.With("run_id", run.ID, "book_id", bookID)
	res = &ExportResult{RunID: run.ID, BookID: bookID, State: StatePending, StartedAt: run.StartedAt}

	defer func() {
		finished := o.now().UTC()
		res.FinishedAt = finished
		run.FinishedAt = &finished
		run.State = res.State
		run.Succeeded, run.Failed = res.counts()
		run.Error = failureSummary(res.Outcomes)
		// The run is recorded even when the caller has gone away.
		if updateErr := o.runs.UpdateRun(context.WithoutCancel(ctx), run); updateErr != nil {
			log.Error("failed to update export run", "err", updateErr)
		}
		o.metrics.observeRun(res.State)
		log.Info("export finished", "state", res.State, "succeeded", run.Succeeded, "failed", run.Failed)
	}()

	emit := serialize(progress)

	editions := map[isbn.Format]isbnResult{}
	if cfg.AssignISBNs || len(cfg.ExternalISBNs) > 0 {
		o.transition(ctx, run, res, StateAssigningISBNs, log)
		editions = o.assignISBNs(ctx, bookID, cfg, log)
	}

	o.transition(ctx, run, res, StateGeneratingFormats, log)
	res.Outcomes = o.generate(ctx, book, cfg, editions, emit, log)

	o.transition(ctx, run, res, StateAggregating, log)
	res.State = StateDone
	for _, oc := range res.Outcomes {
		if !oc.Success {
			res.State = StatePartialFailure
			break
		}
	}
	return res, nil
}

func (o *Orchestrator) transition(ctx context.Context, run *Run, res *ExportResult, to State, log *slog.Logger) {
	log.Debug("export state", "from", res.State, "to", to)
	res.State = to
	run.State = to
	if err := o.runs.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("failed to record export state", "state", to, "err", err)
	}
}

// serialize makes fn safe to call from concurrent generators.
func serialize(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return func(Progress) {}
	}
	var mu sync.Mutex
	return func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		fn(p)
	}
}

// assignISBNs resolves one ISBN per edition the request needs. Failures are
// kept per edition so they fail only the formats that depend on them.
func (o *Orchestrator) assignISBNs(ctx context.Context, bookID string, cfg Config, log *slog.Logger) map[isbn.Format]isbnResult {
	out := map[isbn.Format]isbnResult{}
	for _, f := range cfg.Formats {
		ed := EditionOf(f)
		if _, done := out[ed]; done {
			continue
		}
		code, external := cfg.ExternalISBNs[ed]
		if !external && !cfg.AssignISBNs {
			continue
		}
		var r isbnResult
		switch {
		case o.isbns == nil:
			r.err = errors.New("isbn assignment is not configured")
		case external:
			r.rec, r.err = o.isbns.AssignExisting(ctx, bookID, ed, code)
		default:
			r.rec, r.err = o.isbns.Assign(ctx, bookID, ed)
		}
		o.metrics.observeISBN(string(ed), r.err == nil)
		if r.err != nil {
			log.Warn("isbn assignment failed", "edition", ed, "err", r.err)
		}
		out[ed] = r
	}
	return out
}

func (o *Orchestrator) generate(ctx context.Context, book entity.Book, cfg Config, editions map[isbn.Format]isbnResult, emit ProgressFunc, log *slog.Logger) []FormatOutcome {
	outcomes := make([]FormatOutcome, len(cfg.Formats))
	limit := cfg.MaxParallel
	if limit <= 0 {
		limit = len(cfg.Formats)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, f := range cfg.Formats {
		g.Go(func() error {
			outcomes[i] = o.runFormat(ctx, book, cfg, f, editions, emit, log)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func failed(f Format, err error) FormatOutcome {
	return FormatOutcome{Format: f, Error: err.Error(), ErrorCode: entity.ErrorCode(err)}
}

// runFormat produces one format. A generator panic becomes that format's
// error.
func (o *Orchestrator) runFormat(ctx context.Context, book entity.Book, cfg Config, f Format, editions map[isbn.Format]isbnResult, emit ProgressFunc, log *slog.Logger) (out FormatOutcome) {
	start := o.now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("generator panicked", "format", f, "panic", r, "stack", string(debug.Stack()))
			out = failed(f, fmt.Errorf("%s generator panicked: %v", f, r))
		}
		out.Duration = o.now().Sub(start)
		o.metrics.observeFormat(f, out.Success, out.Duration)
		phase := "completed"
		if !out.Success {
			phase = "failed"
			log.Warn("format failed", "format", f, "code", out.ErrorCode, "err", out.Error)
		}
		emit(Progress{Format: f, Phase: phase, Percent: 100})
	}()

	// Formats waiting for a slot stop here once the run is cancelled.
	if err := ctx.Err(); err != nil {
		return failed(f, err)
	}

	var isbn13 string
	if r, ok := editions[EditionOf(f)]; ok {
		if r.err != nil {
			return failed(f, fmt.Errorf("%s isbn: %w", EditionOf(f), r.err))
		}
		isbn13 = r.rec.ISBN13
	}

	emit(Progress{Format: f, Phase: "started", Percent: 0})
	report := entity.ProgressFunc(func(phase string, percent int) {
		emit(Progress{Format: f, Phase: phase, Percent: percent})
	})

	var err error
	switch f {
	case FormatEPUB:
		out, err = o.runEPUB(ctx, book, cfg, isbn13, report)
	case FormatKDP:
		out, err = o.runKDP(ctx, book, cfg, report)
	case FormatLulu:
		out, err = o.runLulu(ctx, book, cfg, report)
	default:
		err = &entity.InvalidInputError{Field: "formats", Reason: fmt.Sprintf("unknown format %q", f)}
	}
	if err != nil {
		return failed(f, err)
	}
	out.Format = f
	out.Success = true
	out.ISBN = isbn13
	return out
}

func (o *Orchestrator) runEPUB(ctx context.Context, book entity.Book, cfg Config, isbn13 string, report entity.ProgressFunc) (FormatOutcome, error) {
	if o.epub == nil {
		return FormatOutcome{}, errors.New("epub generator is not configured")
	}
	res, err := o.epub.Generate(ctx, book, epub.Options{
		ISBN13:      isbn13,
		Modified:    o.now(),
		ImagePolicy: cfg.ImagePolicy,
		Progress:    report,
	})
	if err != nil {
		return FormatOutcome{}, err
	}
	return FormatOutcome{
		Files:    []Artifact{{Name: epub.FileName(book), ContentType: epub.MediaType, Data: res.Data}},
		Warnings: res.Warnings,
	}, nil
}

func (o *Orchestrator) runKDP(ctx context.Context, book entity.Book, cfg Config, report entity.ProgressFunc) (FormatOutcome, error) {
	if o.kdp == nil {
		return FormatOutcome{}, errors.New("kdp generator is not configured")
	}
	res, err := o.kdp.Generate(ctx, book, kdp.Options{
		DPI:         cfg.DPI,
		ImagePolicy: cfg.ImagePolicy,
		Progress:    report,
		Created:     o.now(),
	})
	if err != nil {
		return FormatOutcome{}, err
	}
	return FormatOutcome{
		Files: []Artifact{
			{Name: kdp.InteriorFileName(book), ContentType: kdp.ContentType, Data: res.Interior.Data},
			{Name: kdp.CoverFileName(book), ContentType: kdp.ContentType, Data: res.Cover.Data},
		},
		Warnings: res.Warnings(),
	}, nil
}

func (o *Orchestrator) runLulu(ctx context.Context, book entity.Book, cfg Config, report entity.ProgressFunc) (FormatOutcome, error) {
	if o.lulu == nil {
		return FormatOutcome{}, errors.New("lulu generator is not configured")
	}
	res, err := o.lulu.Generate(ctx, book, lulu.Options{
		DPI:          cfg.DPI,
		ImagePolicy:  cfg.ImagePolicy,
		Progress:     report,
		Created:      o.now(),
		HeaderFooter: cfg.HeaderFooter,
	})
	if err != nil {
		return FormatOutcome{}, err
	}
	return FormatOutcome{
		Files: []Artifact{
			{Name: lulu.InteriorFileName(book), ContentType: lulu.ContentType, Data: res.Interior.Data},
			{Name: lulu.CoverFileName(book), ContentType: lulu.ContentType, Data: res.Cover.Data},
		},
		Warnings: res.Warnings(),
	}, nil
}

func failureSummary(outcomes []FormatOutcome) string {
	var parts []string
	for _, oc := range outcomes {
		if !oc.Success {
			parts = append(parts, fmt.Sprintf("%s: %s", oc.Format, oc.ErrorCode))
		}
	}
	return strings.Join(parts, "; ")
}
