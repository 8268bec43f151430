package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// ErrNotFound is returned when a row does not exist or belongs to another user
var ErrNotFound = errors.New("not found")

// Connect establishes a connection to the database and creates the schema.
// driver is "sqlite3" or "postgres".
func Connect(driver, dsn string) error {
	if driver == "sqlite3" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		// Create data directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// Enable foreign keys
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}

		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
	}

	DB = db

	return initializeSchema(driver)
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		err := DB.Close()
		DB = nil
		return err
	}
	return nil
}

// schema lists the tables in creation order. %PK% and %TS% are replaced per driver.
var schema = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT false,
			notification_enabled BOOLEAN NOT NULL DEFAULT true,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			created_at %TS% NOT NULL,
			updated_at %TS% NOT NULL
		)`},
	{"topics", `
		CREATE TABLE IF NOT EXISTS topics (
			id %PK%,
			user_id BIGINT NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			last_gap INTEGER NOT NULL DEFAULT 0,
			next_review %TS%,
			custom_intervals TEXT,
			created_at %TS% NOT NULL,
			updated_at %TS% NOT NULL
		)`},
	{"review_logs", `
		CREATE TABLE IF NOT EXISTS review_logs (
			id %PK%,
			user_id BIGINT NOT NULL REFERENCES users(id),
			topic_id BIGINT NOT NULL REFERENCES topics(id),
			gap INTEGER NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT false,
			next_review %TS%,
			reviewed_at %TS% NOT NULL
		)`},
	{"statistics", `
		CREATE TABLE IF NOT EXISTS statistics (
			id %PK%,
			user_id BIGINT NOT NULL REFERENCES users(id),
			topic_id BIGINT NOT NULL REFERENCES topics(id),
			total_reviews INTEGER NOT NULL DEFAULT 0,
			completions INTEGER NOT NULL DEFAULT 0,
			created_at %TS% NOT NULL,
			updated_at %TS% NOT NULL,
			UNIQUE(user_id, topic_id)
		)`},
	{"topics_due_index", `CREATE INDEX IF NOT EXISTS idx_topics_due ON topics(user_id, status, next_review)`},
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(driver string) error {
	r := strings.NewReplacer(
		"%PK%", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"%TS%", "TIMESTAMP",
	)
	if driver == "postgres" {
		r = strings.NewReplacer(
			"%PK%", "BIGSERIAL PRIMARY KEY",
			"%TS%", "TIMESTAMPTZ",
		)
	}

	for _, table := range schema {
		if _, err := DB.Exec(r.Replace(table.ddl)); err != nil {
			return fmt.Errorf("failed to create %s: %w", table.name, err)
		}
	}
	return nil
}
