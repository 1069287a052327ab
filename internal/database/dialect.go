package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// SchemaStatements returns the idempotent DDL for the fixed schema
	SchemaStatements() []string

	// UpsertUserQuery returns the insert-or-refresh statement for users;
	// args are (username, first_seen, last_seen)
	UpsertUserQuery() string

	// ClaimRewardQuery returns the conditional reward insert; a duplicate
	// key affects zero rows instead of erroring
	ClaimRewardQuery() string

	// UpsertSettingQuery returns the insert-or-update statement for settings
	UpsertSettingQuery() string

	// SelectSettingQuery returns the value lookup for settings; "key" is a
	// reserved word in MySQL and needs quoting there
	SelectSettingQuery() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders not inside quotes
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
