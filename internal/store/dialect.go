package store

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrUnsupportedDriver is returned for a db-driver value no Dialect handles.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// DefaultSQLitePath is used when the sqlite driver is selected without a DSN.
const DefaultSQLitePath = "ssbprep.db"

// Dialect hides the differences between the supported SQL backends.
type Dialect interface {
	// Name is the configured driver name (sqlite, postgres, mysql).
	Name() string
	// DriverName is the database/sql driver to open.
	DriverName() string
	// DSN completes the configured data source with required options.
	DSN(dsn string) string
	// RewriteQuery converts ? placeholders when the backend needs another syntax.
	RewriteQuery(query string) string
	// Schema returns the statements creating the chat_turns table and its index.
	Schema() []string
	// ConfigureConnection tunes the pool for the backend.
	ConfigureConnection(db *sql.DB) error
}

// DialectFor returns the Dialect for a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3", "":
		return sqliteDialect{}, nil
	case "postgres", "postgresql", "pgx":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2 and so on.
func rewritePlaceholdersToNumbered(query string) string {
	n := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		n++
		return "$" + strconv.Itoa(n)
	})
}

func configurePool(db *sql.DB, maxOpen int) {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(min(maxOpen, 5))
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) DSN(dsn string) string {
	if dsn == "" {
		dsn = DefaultSQLitePath
	}
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func (sqliteDialect) RewriteQuery(query string) string { return query }

func (sqliteDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS chat_turns (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_turns_user ON chat_turns (user_id, created_at)`,
	}
}

// ConfigureConnection keeps a single connection: sqlite serialises writers
// anyway and an in-memory database exists per connection.
func (sqliteDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db, 1)
	return nil
}

type postgresDialect struct{}

func (postgresDialect) Name() string       { return "postgres" }
func (postgresDialect) DriverName() string { return "pgx" }

func (postgresDialect) DSN(dsn string) string { return dsn }

func (postgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

func (postgresDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS chat_turns (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_turns_user ON chat_turns (user_id, created_at)`,
	}
}

func (postgresDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db, 25)
	return nil
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string       { return "mysql" }
func (mysqlDialect) DriverName() string { return "mysql" }

// DSN enables parseTime so DATETIME columns scan into time.Time.
func (mysqlDialect) DSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

func (mysqlDialect) RewriteQuery(query string) string { return query }

// Schema declares the index inline; MySQL has no CREATE INDEX IF NOT EXISTS.
func (mysqlDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS chat_turns (
			seq BIGINT AUTO_INCREMENT PRIMARY KEY,
			id VARCHAR(36) NOT NULL UNIQUE,
			user_id VARCHAR(255) NOT NULL,
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			INDEX idx_chat_turns_user (user_id, created_at)
		)`,
	}
}

func (mysqlDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db, 25)
	return nil
}
