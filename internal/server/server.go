// Package server wires the store, services, handlers and middleware into
// one chi router and runs it with graceful shutdown.
//
// Dependency chain built in New:
//
//	sqlite.DB → AuthService / ReportService → AuthHandler / ReportHandler
//
// The same *sqlite.DB satisfies every repository interface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/field-report/internal/auth"
	"github.com/sakif/field-report/internal/config"
	"github.com/sakif/field-report/internal/handler"
	"github.com/sakif/field-report/internal/middleware"
	sqliteRepo "github.com/sakif/field-report/internal/repository/sqlite"
	"github.com/sakif/field-report/internal/service"
)

// Server owns the router and the database connection. The connection is
// closed when Start returns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, runs migrations and builds the route tree.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("configuring passwords: %w", err)
	}

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(passwords)

	return s, nil
}

// setupRoutes mounts:
//
//	GET  /healthz
//	POST /v1/login
//	POST /v1/report/attendance       (bearer token)
//	POST /v1/report/submit-product   (bearer token)
//	POST /v1/report/submit-promo     (bearer token)
//	POST /v1/report/{context}        (bearer token)
//
// chi matches static segments before parameters, so the named report
// routes win over {context}.
func (s *Server) setupRoutes(passwords *auth.PasswordService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.SecurityHeaders)
	s.router.Use(middleware.CORS(s.config.CORSAllowedOrigins))

	authService := service.NewAuthService(s.db, auth.NewTokenService(), passwords, s.logger)
	reportService := service.NewReportService(s.db, s.db, s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	reportHandler := handler.NewReportHandler(reportService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)

		// Auth is attached per route so that routing decides first: an
		// unknown path or wrong method under /report is 404/405, not 401.
		requireAuth := r.With(auth.RequireAuth(authService, handler.WriteError))

		requireAuth.Post("/report/attendance", reportHandler.HandleAttendance)
		requireAuth.Post("/report/submit-product", reportHandler.HandleSubmitProduct)
		requireAuth.Post("/report/submit-promo", reportHandler.HandleSubmitPromo)
		requireAuth.Post("/report/{context}", reportHandler.HandleReport)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusNotFound, "not_found", "Endpoint tidak ditemukan")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method tidak diizinkan")
	})
}

func writeStatus(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"status":"error","error":%q,"message":%q}`+"\n", errorType, message)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on return; tests that only
// use Handler call it directly.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start listens on the configured port until SIGINT or SIGTERM, then gives
// in-flight requests 30 seconds to finish.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
