package database

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

func (d *MySQLDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for MySQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Ensure foreign key checks are enabled
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}

	return nil
}

func (d *MySQLDialect) SchemaStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			username VARCHAR(191) PRIMARY KEY,
			first_seen DATETIME(6) NOT NULL,
			last_seen DATETIME(6) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS vocab_de_en (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			de VARCHAR(191) NOT NULL,
			en VARCHAR(191) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS vocab_de_fr (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			de VARCHAR(191) NOT NULL,
			fr VARCHAR(191) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS vocab_attempts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(191) NOT NULL,
			vocab_table VARCHAR(16) NOT NULL,
			de_word VARCHAR(191) NOT NULL,
			correct TINYINT(1) NOT NULL,
			attempted_at DATETIME(6) NOT NULL,
			INDEX idx_vocab_attempts_table_word (vocab_table, de_word)
		);`,
		`CREATE TABLE IF NOT EXISTS player_vocab_rewards (
			username VARCHAR(191) NOT NULL,
			vocab_table VARCHAR(16) NOT NULL,
			de_word VARCHAR(191) NOT NULL,
			rewarded_at DATETIME(6) NOT NULL,
			PRIMARY KEY (username, vocab_table, de_word)
		);`,
		`CREATE TABLE IF NOT EXISTS player_playtime (
			username VARCHAR(191) PRIMARY KEY,
			daily_used_minutes INT NOT NULL DEFAULT 0,
			limit_override_minutes INT,
			last_reset_date VARCHAR(10) NOT NULL
		);`,
		"CREATE TABLE IF NOT EXISTS settings (" +
			"`key` VARCHAR(191) PRIMARY KEY, " +
			"`value` TEXT NOT NULL" +
			");",
	}
}

func (d *MySQLDialect) UpsertUserQuery() string {
	return `INSERT INTO users (username, first_seen, last_seen) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE last_seen = VALUES(last_seen)`
}

func (d *MySQLDialect) ClaimRewardQuery() string {
	return `INSERT IGNORE INTO player_vocab_rewards (username, vocab_table, de_word, rewarded_at)
		VALUES (?, ?, ?, ?)`
}

func (d *MySQLDialect) UpsertSettingQuery() string {
	return "INSERT INTO settings (`key`, `value`) VALUES (?, ?) " +
		"ON DUPLICATE KEY UPDATE `value` = VALUES(`value`)"
}

func (d *MySQLDialect) SelectSettingQuery() string {
	return "SELECT `value` FROM settings WHERE `key` = ?"
}
