// Package main runs the BookBuddy web server.
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
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := di.NewContainer()
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "bookbuddy: %v\n", err)
		os.Exit(1)
	}
	log := do.MustInvoke[*logger.Logger](injector)

	<-ctx.Done()
	stop()
	log.Info("Signal received, shutting down")

	// Providers shut down in reverse dependency order, so the HTTP server
	// drains before the database and search index close.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown finished with errors", "error", err)
		os.Exit(1)
	}
	log.Info("Goodbye, happy reading")
}
