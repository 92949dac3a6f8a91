package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ConnectToSQLite initializes and returns a SQLite connection
func ConnectToSQLite(dbPath string) (*sql.DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for SQLite: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	log.Println("Connected to SQLite database")
	return db, nil
}

// InitializeSchema creates all the necessary tables if they don't exist.
// The username key is NOCASE so that lookups and the uniqueness
// constraint are case-insensitive while the stored casing is preserved.
// Decimal amounts are stored as TEXT to avoid float rounding.
func InitializeSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY COLLATE NOCASE,
		password TEXT NOT NULL,
		profile_picture TEXT NOT NULL DEFAULT '',
		starting_balance TEXT NOT NULL DEFAULT '0'
	)`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY,
		debtor TEXT NOT NULL,
		creditor TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		date TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		paid INTEGER NOT NULL DEFAULT 0,
		payment_method TEXT NOT NULL,
		approved INTEGER
	)`)
	if err != nil {
		return fmt.Errorf("failed to create entries table: %w", err)
	}

	return nil
}
