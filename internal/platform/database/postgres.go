package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"hackathon_portal/internal/platform/config"
	"hackathon_portal/internal/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

var DB *sql.DB

func Connect() {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		logger.L().Fatal("Error opening database", zap.Error(err))
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err = DB.Ping(); err != nil {
		logger.L().Fatal("Error connecting to database", zap.Error(err))
	}

	logger.L().Info("Successfully connected to PostgreSQL database")
}

// EnsureSchema creates the tables and the uniqueness constraints the
// submission flows rely on. Every statement is idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("database.EnsureSchema: %w", err)
	}
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		logger.L().Info("Database connection closed")
	}
}
