// Package repository stores telegram chats, reminders and todos in SQL.
// Both mysql (production) and sqlite3 (embedded and tests) are supported
// through database/sql; the queries are shared and only the schema differs.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"time"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS telegram_chats (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			telegram_id       INTEGER NOT NULL UNIQUE,
			telegram_username TEXT    NOT NULL DEFAULT '',
			full_name         TEXT    NOT NULL DEFAULT '',
			date_joined       DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			telegram_chat_id INTEGER NOT NULL REFERENCES telegram_chats(id) ON DELETE CASCADE,
			fire_at          DATETIME NOT NULL,
			message          TEXT    NOT NULL DEFAULT '',
			repeat_count     INTEGER NOT NULL DEFAULT 0,
			repeat_period    INTEGER NOT NULL DEFAULT 0,
			done             INTEGER NOT NULL DEFAULT 0,
			processing       INTEGER NOT NULL DEFAULT 0,
			created_at       DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders (done, processing, fire_at)`,
		`CREATE TABLE IF NOT EXISTS todos (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			telegram_chat_id INTEGER NOT NULL REFERENCES telegram_chats(id) ON DELETE CASCADE,
			message          TEXT    NOT NULL,
			category         TEXT    NOT NULL,
			done             INTEGER NOT NULL DEFAULT 0,
			created_at       DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_todos_chat ON todos (telegram_chat_id, done)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS telegram_chats (
			id                BIGINT AUTO_INCREMENT PRIMARY KEY,
			telegram_id       BIGINT       NOT NULL UNIQUE,
			telegram_username VARCHAR(255) NOT NULL DEFAULT '',
			full_name         VARCHAR(255) NOT NULL DEFAULT '',
			date_joined       DATETIME     NOT NULL
		) CHARACTER SET utf8mb4`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id               BIGINT AUTO_INCREMENT PRIMARY KEY,
			telegram_chat_id BIGINT     NOT NULL,
			fire_at          DATETIME   NOT NULL,
			message          TEXT       NOT NULL,
			repeat_count     INT        NOT NULL DEFAULT 0,
			repeat_period    INT        NOT NULL DEFAULT 0,
			done             TINYINT(1) NOT NULL DEFAULT 0,
			processing       TINYINT(1) NOT NULL DEFAULT 0,
			created_at       DATETIME   NOT NULL,
			INDEX idx_reminders_due (done, processing, fire_at),
			FOREIGN KEY (telegram_chat_id) REFERENCES telegram_chats (id) ON DELETE CASCADE
		) CHARACTER SET utf8mb4`,
		`CREATE TABLE IF NOT EXISTS todos (
			id               BIGINT AUTO_INCREMENT PRIMARY KEY,
			telegram_chat_id BIGINT       NOT NULL,
			message          TEXT         NOT NULL,
			category         VARCHAR(255) NOT NULL,
			done             TINYINT(1)   NOT NULL DEFAULT 0,
			created_at       DATETIME     NOT NULL,
			INDEX idx_todos_chat (telegram_chat_id, done),
			FOREIGN KEY (telegram_chat_id) REFERENCES telegram_chats (id) ON DELETE CASCADE
		) CHARACTER SET utf8mb4`,
	},
}

// Storage is the SQL backed store of chats, reminders and todos.
type Storage struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Open connects to the database. For mysql the DSN must carry
// parseTime=true&loc=UTC so DATETIME columns scan into UTC time.Time values.
// Arguments:
//   - driver: DriverSQLite or DriverMySQL.
//   - dsn: driver specific data source name.
//
// Returns a ready Storage or an error if the database is unreachable.
func Open(ctx context.Context, driver, dsn string) (*Storage, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer, so concurrent scheduler passes and handlers queue instead of failing with SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	logrus.Infof("Connected to %s database", driver)
	return &Storage{db: db, driver: driver, now: time.Now}, nil
}

// Migrate creates the tables that don't exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	for _, stmt := range schemas[s.driver] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.driver, err)
		}
	}
	logrus.Info("Database schema is up to date")
	return nil
}

// Close closes the underlying pool.
func (s *Storage) Close() error {
	return s.db.Close()
}

// dbTime normalizes every timestamp written to or compared in the database.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// rowsAffected reports whether res touched exactly one row.
func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
