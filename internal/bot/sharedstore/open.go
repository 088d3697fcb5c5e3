package sharedstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/diarybot/internal/bot/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Connect prepares a pool for the shared store without touching the
// database. For SQLite the DSN may be a plain file path and the pool is
// limited to one connection.
func Connect(driver, dsn string) (*sql.DB, error) {
	if !Supported(driver) {
		return nil, fmt.Errorf("unsupported shared store driver %q", driver)
	}
	if driver == DriverSQLite {
		dsn = storage.DSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("shared store open error: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Open is Connect followed by a ping.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("shared store ping error: %w", err)
	}
	return db, nil
}
