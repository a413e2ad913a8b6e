// Package storage manages the embedded SQLite database shared by the ledgers.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Open opens (creating if necessary) the database at path and applies the schema.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// busy_timeout guards against transient SQLITE_BUSY under the single-writer model.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The write path is serialized by the application; a single connection
	// keeps SQLite's locking out of the picture.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema(db *sql.DB) error {
	schemaSQL := `
		CREATE TABLE IF NOT EXISTS coins (
			name    TEXT PRIMARY KEY,
			balance TEXT NOT NULL DEFAULT '0'
		);
		CREATE TABLE IF NOT EXISTS history (
			time      INTEGER NOT NULL,
			coin_name TEXT    NOT NULL,
			price     TEXT    NOT NULL,
			supply    TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_coin_time ON history (coin_name, time);
		CREATE TABLE IF NOT EXISTS suppliers (
			user_id        TEXT NOT NULL,
			coin_name      TEXT NOT NULL,
			amount         TEXT NOT NULL DEFAULT '0',
			fees_collected TEXT NOT NULL DEFAULT '0',
			PRIMARY KEY (user_id, coin_name)
		);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error. Every mutating ledger operation goes through here so the
// in-memory state change and its durable write stay atomic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
