package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bookpublish/internal/config"
	"bookpublish/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	loadEnvFiles()
	log := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	dsn := databaseDSN()
	dir := migrationsDir()

	if *command == "create" {
		if *name == "" {
			log.Error("name is required for 'create' command")
			os.Exit(2)
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			log.Error("failed to create migration", "err", err)
			os.Exit(1)
		}
		fmt.Printf("Migration created: %s\n", *name)
		return
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect to database", "dsn", config.RedactDSN(dsn), "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Error("set dialect", "err", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			log.Error("failed to run migrations", "dir", dir, "err", err)
			os.Exit(1)
		}
		fmt.Println("Migrations applied successfully")
	case "down":
		if err := goose.Down(db, dir); err != nil {
			log.Error("failed to roll back migrations", "dir", dir, "err", err)
			os.Exit(1)
		}
		fmt.Println("Migrations rolled back successfully")
	case "status":
		if err := goose.Status(db, dir); err != nil {
			log.Error("failed to check migration status", "err", err)
			os.Exit(1)
		}
	default:
		log.Error("unknown command, use up, down, status or create", "command", *command)
		os.Exit(2)
	}
}
