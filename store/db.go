// Package store is the idempotent persistence gateway. Orders are
// keyed by their natural order_number, so re-running a scrape updates
// rows instead of duplicating them.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/pantry-tools/cubscrape/migrations"
)

// slogGooseLogger adapts slog to goose's logger interface.
type slogGooseLogger struct{}

func (slogGooseLogger) Fatalf(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...))
}

func (slogGooseLogger) Printf(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...))
}

// Open opens (creating if needed) the SQLite database at path and
// applies pending migrations. The caller owns the handle for the run
// and closes it at run end.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", path, err)
	}
	// A single connection keeps PRAGMA state and keeps SQLite happy
	// under transactions.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	goose.SetLogger(slogGooseLogger{})
	goose.SetBaseFS(migrations.EmbedFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("database ready", "path", path)
	return db, nil
}
