// Package main seeds the catalogue with the curated home page shelves.
//
// It accepts the same flags and environment variables as the server, so it
// writes to the same database:
//
//	go run ./cmd/seed --data-path ~/bookbuddy
//	BOOKBUDDY_OPENLIBRARY_ENABLED=false go run ./cmd/seed
//
// Books already in the catalogue are skipped, so running it twice is safe.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/di"
	"github.com/bookbuddyapp/bookbuddy-server/internal/logger"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

func main() {
	injector := di.NewContainer()

	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx, injector, log)

	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, injector do.Injector, log *logger.Logger) int {
	// Only the book service is resolved: the HTTP server and workers are
	// never started.
	books, err := do.Invoke[*service.BookService](injector)
	if err != nil {
		log.Error("Failed to initialize services", "error", err)
		return 1
	}

	result, err := books.SeedCatalogue(ctx)
	if err != nil {
		log.Error("Seeding failed", "error", err, "created", result.Created)
		return 1
	}

	fmt.Printf("Seeded catalogue: %d books added, %d already present\n", result.Created, result.Skipped)
	return 0
}
