// Package main is the entry point for the habit tracker server.
//
// main's job is configuration and assembly only: load env vars, build the
// logger and the optional Telegram sender, hand everything to internal/server.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/habit-tracker/internal/notify"
	"github.com/sakif/habit-tracker/internal/server"
)

// Defaults for the reminder schedule. The lookahead is wider than the tick
// interval so a delayed or skipped tick can't drop an occurrence; the per-day
// claim marker keeps the overlap from double-sending.
const (
	defaultReminderInterval  = time.Minute
	defaultReminderLookahead = 5 * time.Minute

	defaultDisplayTZ = "Europe/Moscow"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded configuration from .env")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/habits.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// JWT_SECRET has no default: a guessable secret means forgeable logins.
	// Generate one with: openssl rand -hex 32
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	interval := durationEnv(logger, "REMINDER_INTERVAL", defaultReminderInterval)
	lookahead := durationEnv(logger, "REMINDER_LOOKAHEAD", defaultReminderLookahead)

	tzName := os.Getenv("DISPLAY_TZ")
	if tzName == "" {
		tzName = defaultDisplayTZ
	}
	displayTZ, err := time.LoadLocation(tzName)
	if err != nil {
		logger.Warn("unknown DISPLAY_TZ, falling back to UTC", slog.String("value", tzName))
		displayTZ = time.UTC
	}

	// The Telegram sender is optional: without a token the API runs normally
	// and reminder dispatch is disabled.
	var sender notify.Sender
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		tg, err := notify.NewTelegramSender(token, logger)
		if err != nil {
			logger.Error("failed to initialize telegram sender", slog.String("error", err.Error()))
			os.Exit(1)
		}
		sender = tg
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN not set, reminders are disabled")
	}

	cfg := server.Config{
		Port:              port,
		DBPath:            dbPath,
		JWTSecret:         jwtSecret,
		ReminderInterval:  interval,
		ReminderLookahead: lookahead,
		DisplayTZ:         displayTZ,
	}

	srv, err := server.New(cfg, logger, sender)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// logLevel reads LOG_LEVEL (debug, info, warn, error), defaulting to info.
func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// durationEnv reads a time.Duration env var ("90s", "2m"), falling back to
// def on absence or a parse error.
func durationEnv(logger *slog.Logger, name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration env var, using default",
			slog.String("name", name),
			slog.String("value", raw),
			slog.Duration("default", def),
		)
		return def
	}
	return d
}
