// Command seed populates the database with a demo customer portfolio
// and 90 days of usage history.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/seed
//	go run ./cmd/seed -count 30 -seed 42
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/pulseboard/pulseboard/internal/customer"
	"github.com/pulseboard/pulseboard/internal/event"
	"github.com/pulseboard/pulseboard/internal/logging"
	"github.com/pulseboard/pulseboard/internal/seed"
)

func main() {
	count := flag.Int("count", seed.DefaultCount, "number of customers to create")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "random seed for reproducible portfolios")
	flag.Parse()

	logger := logging.New("info", "text")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Error("DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	seeder := seed.New(customer.NewPostgresStore(db), event.NewPostgresStore(db), *seedValue, logger)

	created, err := seeder.Run(ctx, *count)
	if err != nil {
		logger.Error("seeding failed", "error", err, "created", created)
		os.Exit(1)
	}

	logger.Info("done", "created", created)
}
