package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"conduit/internal/auth"
	"conduit/internal/config"
	"conduit/internal/domain"
	"conduit/internal/domain/password"
	"conduit/internal/postgres"

	"github.com/golang-cz/devslog"
	_ "github.com/lib/pq"
)

type application struct {
	config *config.Config
	logger *slog.Logger
	repo   domain.Repository
	auth   *auth.Auth
}

func main() {
	logger := configLogger()
	logger.Info("Starting application...")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	password.SetCost(cfg.BcryptCost)

	db, err := openDBConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Error opening database connection", "error", err.Error())
		os.Exit(1)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database connection", "error", err.Error())
			os.Exit(1)
		}
	}()

	logger.Info("Database connection established successfully")

	app := application{
		config: cfg,
		logger: logger,
		repo:   postgres.NewRepository(db, logger, cfg.DBTimeout),
		auth:   auth.New([]byte(cfg.JWTSecret), cfg.TokenTTL),
	}

	if err := app.serve(); err != nil {
		logger.Error("Error starting server", "error", err.Error())
		os.Exit(1)
	}
}

func configLogger() *slog.Logger {
	handler := devslog.NewHandler(
		os.Stdout, &devslog.Options{
			HandlerOptions: &slog.HandlerOptions{
				AddSource: true,
				Level:     slog.LevelDebug,
			},
			NewLineAfterLog: false,
		})

	return slog.New(handler)
}

func openDBConnection(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(10 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}
