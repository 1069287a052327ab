package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

func (d *SQLiteDialect) DSN(config DialectConfig) string {
	return config.Path
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) SupportsLastInsertId() bool {
	return true
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return err
	}

	return nil
}

func (d *SQLiteDialect) SchemaStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			first_seen DATETIME NOT NULL,
			last_seen DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS vocab_de_en (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			de TEXT NOT NULL,
			en TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS vocab_de_fr (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			de TEXT NOT NULL,
			fr TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS vocab_attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			vocab_table TEXT NOT NULL,
			de_word TEXT NOT NULL,
			correct INTEGER NOT NULL,
			attempted_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_vocab_attempts_table_word
			ON vocab_attempts (vocab_table, de_word);`,
		`CREATE TABLE IF NOT EXISTS player_vocab_rewards (
			username TEXT NOT NULL,
			vocab_table TEXT NOT NULL,
			de_word TEXT NOT NULL,
			rewarded_at DATETIME NOT NULL,
			PRIMARY KEY (username, vocab_table, de_word)
		);`,
		`CREATE TABLE IF NOT EXISTS player_playtime (
			username TEXT PRIMARY KEY,
			daily_used_minutes INTEGER NOT NULL DEFAULT 0,
			limit_override_minutes INTEGER,
			last_reset_date TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
}

func (d *SQLiteDialect) UpsertUserQuery() string {
	return `INSERT INTO users (username, first_seen, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET last_seen = excluded.last_seen`
}

func (d *SQLiteDialect) ClaimRewardQuery() string {
	return `INSERT OR IGNORE INTO player_vocab_rewards (username, vocab_table, de_word, rewarded_at)
		VALUES (?, ?, ?, ?)`
}

func (d *SQLiteDialect) UpsertSettingQuery() string {
	return `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
}

func (d *SQLiteDialect) SelectSettingQuery() string {
	return "SELECT value FROM settings WHERE key = ?"
}
