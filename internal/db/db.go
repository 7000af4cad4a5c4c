package db

import (
	"context"
	"database/sql"

	_ "embed"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schema string

// DBTX is satisfied by both *sql.DB and *sql.Tx, so repositories can run
// inside a caller-owned transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func ConnectAndMigrate(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		log.Error().Err(err).Msg("failed to ping database")
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		log.Error().Err(err).Msg("failed to apply schema")
		return nil, err
	}

	return db, nil
}
