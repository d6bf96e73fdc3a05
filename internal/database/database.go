package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"chess-wrapped/internal/config"
	"chess-wrapped/internal/constants"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// connParams are applied by the driver to every pooled connection as it opens.
var connParams = [][2]string{
	{"_journal_mode", "WAL"},
	{"_synchronous", "NORMAL"},
	{"_busy_timeout", "5000"},
	{"_foreign_keys", "on"},
	{"_cache_size", "-64000"},
}

// New opens the archive cache and brings its schema up to date.
func New(cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	source := dsn(cfg.DBPath)
	logger.Info().Str("dsn", source).Msg("opening archive cache")

	db, err := sql.Open("sqlite3", source)
	if err != nil {
		return nil, fmt.Errorf("open archive cache: %w", err)
	}

	db.SetMaxOpenConns(constants.DBMaxOpenConns)
	db.SetMaxIdleConns(constants.DBMaxIdleConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive cache: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		logger.Error().Err(err).Msg("archive cache migration failed")
		return nil, err
	}

	logger.Info().Msg("archive cache ready")
	return db, nil
}

// dsn merges connParams into the query of path. Values already present in
// path win.
func dsn(path string) string {
	file, rawQuery, _ := strings.Cut(path, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	for _, p := range connParams {
		if !query.Has(p[0]) {
			query.Set(p[0], p[1])
		}
	}
	return file + "?" + query.Encode()
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
