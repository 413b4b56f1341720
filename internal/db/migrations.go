package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of idempotent SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT    NOT NULL,
		last_name  TEXT    NOT NULL,
		email      TEXT    NOT NULL UNIQUE,
		password   TEXT    NOT NULL,
		is_admin   INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT    NOT NULL,
		city       TEXT    NOT NULL,
		state      TEXT    NOT NULL,
		country    TEXT    NOT NULL,
		host_id    INTEGER NOT NULL REFERENCES users(id),
		photo_url  TEXT    NOT NULL DEFAULT '',
		price      REAL    NOT NULL CHECK (price >= 0),
		details    TEXT    NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_host_id ON listings(host_id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		from_user_id INTEGER NOT NULL REFERENCES users(id),
		to_user_id   INTEGER NOT NULL REFERENCES users(id),
		body         TEXT    NOT NULL,
		sent_at      DATETIME NOT NULL,
		read_at      DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_to_user ON messages(to_user_id, sent_at)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
