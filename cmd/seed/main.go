package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bookpublish/internal/app"
	"bookpublish/internal/config"
	"bookpublish/internal/isbn"
	"bookpublish/internal/logging"
)

// seed assigns epub and print ISBNs to a run of demo books so local stores
// have data to list and export against.
func main() {
	count := flag.Int("count", 100, "number of demo books")
	prefix := flag.String("book-prefix", "demo-book", "book ID prefix")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *prefix, *count); err != nil {
		log.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger, prefix string, count int) error {
	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	log.Info("seeding isbns", "books", count, "store", cfg.ISBNStore)
	assigned := 0
	for i := 1; i <= count; i++ {
		bookID := fmt.Sprintf("%s-%05d", prefix, i)
		for _, edition := range []isbn.Format{isbn.FormatEPUB, isbn.FormatPrint} {
			if _, err := a.ISBNs.Assign(ctx, bookID, edition); err != nil {
				return fmt.Errorf("assign %s %s: %w", bookID, edition, err)
			}
			assigned++
		}
		if i%100 == 0 {
			log.Info("progress", "books", i, "of", count)
		}
	}
	log.Info("seed complete", "isbns", assigned)
	return nil
}
