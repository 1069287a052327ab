package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	// PostgreSQL uses $1, $2, etc. instead of ?
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) SupportsLastInsertId() bool {
	// PostgreSQL doesn't support LastInsertId(), needs RETURNING clause
	return false
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for PostgreSQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// PostgreSQL has foreign keys enabled by default, no pragma needed
	return nil
}

func (d *PostgresDialect) SchemaStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			first_seen TIMESTAMPTZ NOT NULL,
			last_seen TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS vocab_de_en (
			id BIGSERIAL PRIMARY KEY,
			de TEXT NOT NULL,
			en TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS vocab_de_fr (
			id BIGSERIAL PRIMARY KEY,
			de TEXT NOT NULL,
			fr TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS vocab_attempts (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL,
			vocab_table TEXT NOT NULL,
			de_word TEXT NOT NULL,
			correct BOOLEAN NOT NULL,
			attempted_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_vocab_attempts_table_word
			ON vocab_attempts (vocab_table, de_word);`,
		`CREATE TABLE IF NOT EXISTS player_vocab_rewards (
			username TEXT NOT NULL,
			vocab_table TEXT NOT NULL,
			de_word TEXT NOT NULL,
			rewarded_at TIMESTAMPTZ NOT NULL,
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

func (d *PostgresDialect) UpsertUserQuery() string {
	return `INSERT INTO users (username, first_seen, last_seen) VALUES (?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET last_seen = excluded.last_seen`
}

func (d *PostgresDialect) ClaimRewardQuery() string {
	return `INSERT INTO player_vocab_rewards (username, vocab_table, de_word, rewarded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (username, vocab_table, de_word) DO NOTHING`
}

func (d *PostgresDialect) UpsertSettingQuery() string {
	return `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`
}

func (d *PostgresDialect) SelectSettingQuery() string {
	return "SELECT value FROM settings WHERE key = ?"
}
