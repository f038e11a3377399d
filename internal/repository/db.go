package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	if err := seedBazars(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed bazars: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS bazars (
			name TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			sort_order INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id TEXT PRIMARY KEY,
			customer_id INTEGER NOT NULL,
			bazar TEXT NOT NULL,
			number INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			entry_date DATE NOT NULL,
			format TEXT NOT NULL,
			source_line TEXT NOT NULL,
			source_record_id TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (customer_id) REFERENCES customers(id),
			FOREIGN KEY (bazar) REFERENCES bazars(name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_customer ON ledger_entries(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_bazar ON ledger_entries(bazar)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_entry_date ON ledger_entries(entry_date)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_source_record ON ledger_entries(source_record_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}

// seedBazars inserts the canonical market slots. Existing rows are left
// alone so operator renames survive restarts.
func seedBazars(db *sql.DB) error {
	seed := []struct {
		name    string
		display string
	}{
		{"T.O", "Time Open"},
		{"T.K", "Time Close"},
		{"M.O", "Main Open"},
		{"M.K", "Main Close"},
		{"K.O", "Kalyan Open"},
		{"K.K", "Kalyan Close"},
	}

	for i, b := range seed {
		_, err := db.Exec(
			`INSERT OR IGNORE INTO bazars (name, display_name, sort_order) VALUES (?,?,?)`,
			b.name, b.display, i+1,
		)
		if err != nil {
			return fmt.Errorf("insert bazar %s: %w", b.name, err)
		}
	}
	return nil
}
