package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookpublish/internal/app"
	"bookpublish/internal/config"
	"bookpublish/internal/httpx"
	"bookpublish/internal/isbn"
	"bookpublish/internal/logging"
	"bookpublish/internal/publish"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(2)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.New(ctx, cfg, log, reg)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, a, reg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Exports render synchronously.
		WriteTimeout: cfg.ExportTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "err", err)
		}
	}()

	log.Info("starting server", "addr", cfg.Addr, "isbn_store", cfg.ISBNStore)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "err", err)
		os.Exit(1)
	}
}

func newRouter(ctx context.Context, a *app.App, gatherer prometheus.Gatherer) http.Handler {
	exports := publish.NewHTTPHandler(a.Exports, a.ExportConfig, a.Config.ExportTimeout)
	isbns := isbn.NewHTTPHandler(a.ISBNs)
	limiter := httpx.NewRateLimitMiddleware(ctx, a.Config.RateLimitRPS, a.Config.RateLimitBurst)

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := a.Ping(pingCtx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	router.Handle("POST /v1/exports", limiter.Middleware(http.HandlerFunc(exports.Export)))
	router.HandleFunc("GET /v1/exports/{runID}", exports.GetRun)
	router.HandleFunc("POST /v1/readiness", exports.Readiness)

	router.Handle("/v1/books/{bookID}/isbns", httpx.MethodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(isbns.List),
		http.MethodPost: http.HandlerFunc(isbns.Assign),
	}))
	router.HandleFunc("GET /v1/isbns/{code}", isbns.Lookup)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(a.Log),
		httpx.RecoveryMiddleware(a.Log),
		httpx.SecurityHeadersMiddleware(a.Config.EnableHSTS),
		httpx.CORSMiddleware(a.Config.CORSOrigins),
		httpx.RequestSizeLimitMiddleware(a.Config.MaxBodyBytes),
	)
}
