// Package server wires the router, middleware, services, and the reminder
// worker, and owns startup/shutdown.
//
// Dependency flow, assembled in New (the composition root):
//
//	sqlite.DB → repositories → services → handlers → routes
//	          → reminder.Selector/Dispatcher → reminder.Worker
//
// Handlers never touch the database; services never touch HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/habit-tracker/internal/auth"
	"github.com/sakif/habit-tracker/internal/handler"
	"github.com/sakif/habit-tracker/internal/middleware"
	"github.com/sakif/habit-tracker/internal/notify"
	"github.com/sakif/habit-tracker/internal/reminder"
	sqliteRepo "github.com/sakif/habit-tracker/internal/repository/sqlite"
	"github.com/sakif/habit-tracker/internal/service"
)

// Config holds server configuration, loaded by main from the environment.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	// Reminder scheduling. Interval is the tick period, Lookahead the due
	// window each tick covers. Lookahead should be at least Interval so no
	// occurrence falls between windows.
	ReminderInterval  time.Duration
	ReminderLookahead time.Duration

	// DisplayTZ is the timezone rendered inside reminder messages. All
	// scheduling stays in UTC regardless.
	DisplayTZ *time.Location
}

// Server owns the router, the database connection, and the reminder worker.
// All three are released during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	worker *reminder.Worker // nil when no sender is configured
}

// New assembles the full dependency chain. sender may be nil, in which case
// the API runs normally but no reminders are dispatched.
func New(cfg Config, logger *slog.Logger, sender notify.Sender) (*Server, error) {
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

	if err := s.setup(sender); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// setup wires services, handlers, routes, and (when a sender is available)
// the reminder worker.
func (s *Server) setup(sender notify.Sender) error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
	habitService := service.NewHabitService(s.db, s.db, s.logger)

	userHandler := handler.NewUserHandler(authService, s.logger)
	habitHandler := handler.NewHabitHandler(habitService, s.logger)

	// Global middleware, in order: request ID, real IP, panic recovery,
	// request logging.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Route("/api", func(r chi.Router) {
		// Open routes.
		r.Post("/users/register", userHandler.HandleRegister)
		r.Post("/users/token", userHandler.HandleLogin)
		r.Post("/users/logout", userHandler.HandleLogout)
		r.With(auth.OptionalAuth(tokens)).Get("/habits/public", habitHandler.HandlePublicList)

		// Everything below requires a valid token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/users/me", userHandler.HandleMe)
			r.Get("/users/profile", userHandler.HandleGetProfile)
			r.Patch("/users/profile", userHandler.HandleUpdateProfile)
			r.Post("/users/telegram/connect", userHandler.HandleTelegramConnect)
			r.Delete("/users/telegram/connect", userHandler.HandleTelegramDisconnect)

			r.Get("/habits", habitHandler.HandleList)
			r.Post("/habits", habitHandler.HandleCreate)
			r.Get("/habits/{id}", habitHandler.HandleGetByID)
			r.Put("/habits/{id}", habitHandler.HandleUpdate)
			r.Delete("/habits/{id}", habitHandler.HandleDelete)
			r.Post("/habits/{id}/complete", habitHandler.HandleComplete)
			r.Post("/habits/{id}/uncomplete", habitHandler.HandleUncomplete)
			r.Get("/habits/{id}/completions", habitHandler.HandleCompletions)
		})
	})

	if sender == nil {
		s.logger.Warn("no notification sender configured, reminders disabled")
		return nil
	}

	selector := reminder.NewSelector(s.db, s.logger)
	dispatcher := reminder.NewDispatcher(sender, s.db, s.config.DisplayTZ, s.logger)
	worker, err := reminder.NewWorker(selector, dispatcher,
		s.config.ReminderInterval, s.config.ReminderLookahead, s.logger)
	if err != nil {
		return fmt.Errorf("creating reminder worker: %w", err)
	}
	s.worker = worker

	return nil
}

// Start runs the HTTP server and the reminder worker until SIGINT/SIGTERM,
// then shuts down in order: stop accepting requests, drain in-flight ones,
// stop the worker (waiting for an in-flight tick), close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	if s.worker != nil {
		if err := s.worker.Start(workerCtx); err != nil {
			return fmt.Errorf("starting reminder worker: %w", err)
		}
		defer s.worker.Stop()
	}

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
		if err != http.ErrServerClosed {
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
