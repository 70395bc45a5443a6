// Package app wires the export pipeline from runtime configuration. The api
// and publish binaries both build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"bookpublish/internal/config"
	"bookpublish/internal/epub"
	"bookpublish/internal/imageload"
	"bookpublish/internal/isbn"
	"bookpublish/internal/kdp"
	"bookpublish/internal/lulu"
	"bookpublish/internal/publish"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const userAgent = "bookpublish/1.0 (image fetcher)"

type App struct {
	Config  config.Config
	Log     *slog.Logger
	ISBNs   *isbn.Manager
	Exports *publish.Orchestrator
	// DB is set only when the postgres store is configured.
	DB *pgxpool.Pool

	closers []func() error
}

// NewImageLoader resolves http(s) URLs, data: URIs and paths below
// cfg.ImageRoot.
func NewImageLoader(cfg config.Config, log *slog.Logger) *imageload.Loader {
	src := imageload.MultiSource{
		HTTP: imageload.NewHTTPSource(userAgent, cfg.ImageFetchRPS, cfg.ImageFetchRetries,
			imageload.WithHTTPClient(&http.Client{Timeout: cfg.ImageFetchTimeout})),
		Data: imageload.DataURISource{},
		File: imageload.FileSource{Root: cfg.ImageRoot},
	}
	return imageload.NewLoader(src, cfg.ImageFetchConcurrency, log)
}

// LoadFont reads a TrueType font for the PDF generators.
func LoadFont(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read render font: %w", err)
	}
	if mt := mimetype.Detect(data); !mt.Is("font/ttf") {
		return nil, fmt.Errorf("render font %s is %s, want a TrueType font", path, mt.String())
	}
	return data, nil
}

// New opens the configured stores and builds the orchestrator. reg may be
// nil. Callers must Close the App.
func New(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg, Log: log}

	var kdpOpts []kdp.Option
	var luluOpts []lulu.Option
	if cfg.RenderFontFile != "" {
		ttf, err := LoadFont(cfg.RenderFontFile)
		if err != nil {
			return nil, err
		}
		kdpOpts = append(kdpOpts, kdp.WithUTF8Font(ttf))
		luluOpts = append(luluOpts, lulu.WithUTF8Font(ttf))
		log.Info("render font loaded", "path", cfg.RenderFontFile)
	}

	if cfg.ISBNStore == config.StorePostgres {
		pool, err := pgxpool.New(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("create db pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database (%s): %w", config.RedactDSN(cfg.DBDSN), err)
		}
		a.DB = pool
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		log.Info("database connection OK")
	}

	repo, closeRepo, err := isbn.OpenRepository(ctx, isbn.StoreOptions{
		Kind:       cfg.ISBNStore,
		Pool:       a.DB,
		RedisAddr:  cfg.RedisAddr,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open isbn store: %w", err)
	}
	a.closers = append(a.closers, closeRepo)

	a.ISBNs, err = isbn.NewManager(repo, cfg.ISBNPrefix, isbn.WithLogger(log))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var runs publish.RunStore
	if a.DB != nil {
		runs = publish.NewPostgresRunStore(a.DB)
	}

	loader := NewImageLoader(cfg, log)
	a.Exports = publish.New(publish.Deps{
		EPUB:    epub.NewGenerator(loader, log),
		KDP:     kdp.NewGenerator(loader, log, kdpOpts...),
		Lulu:    lulu.NewGenerator(loader, log, luluOpts...),
		ISBNs:   a.ISBNs,
		Runs:    runs,
		Metrics: publish.NewMetrics(reg),
		Logger:  log,
	})
	return a, nil
}

// ExportConfig applies the process-wide render defaults to a request.
func (a *App) ExportConfig(cfg publish.Config) publish.Config {
	if cfg.DPI == 0 {
		cfg.DPI = a.Config.RenderDPI
	}
	return cfg
}

// Ping reports whether the backing database answers. Without one the App
// is always ready.
func (a *App) Ping(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Ping(ctx)
}

// Close releases stores in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
