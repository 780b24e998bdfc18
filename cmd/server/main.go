// Command server runs the field report API.
//
// Configuration comes from the environment or a .env file:
//
//	PORT=3000 DB_PATH=data/fieldreport.db BCRYPT_COST=12 LOG_LEVEL=info \
//	CORS_ALLOWED_ORIGINS=https://app.example.com go run ./cmd/server
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/field-report/internal/config"
	"github.com/sakif/field-report/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
