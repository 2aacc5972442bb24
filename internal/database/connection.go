package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names as registered with database/sql
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Connect opens the database selected by dbType ("sqlite" or "postgres").
// For sqlite dsn is a file path, for postgres a connection string.
func Connect(dbType, dsn string) (*sqlx.DB, error) {
	switch dbType {
	case "sqlite", DriverSQLite:
		return connectSQLite(dsn)
	case DriverPostgres:
		db, err := sqlx.Connect(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("unsupported database type %q", dbType)
}

func connectSQLite(path string) (*sqlx.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite doesn't support multiple writers; one connection also keeps
	// an in-memory database alive and serializes transactions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

var schema = []struct {
	name string
	ddl  string
}{
	{"tests", `
		CREATE TABLE IF NOT EXISTS tests (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			pass_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_questions INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"questions", `
		CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			prompt TEXT NOT NULL DEFAULT '',
			options TEXT,
			correct_answer TEXT,
			points DOUBLE PRECISION NOT NULL DEFAULT 1,
			position INTEGER NOT NULL DEFAULT 0
		)`},
	{"questions_test_idx", `CREATE INDEX IF NOT EXISTS questions_test_idx ON questions (test_id, position)`},
	{"test_results", `
		CREATE TABLE IF NOT EXISTS test_results (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			test_id TEXT NOT NULL,
			answers TEXT NOT NULL,
			correct_answers INTEGER NOT NULL DEFAULT 0,
			wrong_answers INTEGER NOT NULL DEFAULT 0,
			skipped_answers INTEGER NOT NULL DEFAULT 0,
			score DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_passed BOOLEAN NOT NULL DEFAULT FALSE,
			time_spent INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP NOT NULL,
			teacher_feedback TEXT NOT NULL DEFAULT '',
			graded_by TEXT NOT NULL DEFAULT '',
			graded_at TIMESTAMP NULL
		)`},
	{"test_results_user_idx", `CREATE INDEX IF NOT EXISTS test_results_user_idx ON test_results (user_id, completed_at)`},
	{"progress", `
		CREATE TABLE IF NOT EXISTS progress (
			user_id TEXT PRIMARY KEY,
			overall_band_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_tests_completed INTEGER NOT NULL DEFAULT 0,
			total_time_spent INTEGER NOT NULL DEFAULT 0,
			skills_progress TEXT NOT NULL DEFAULT '[]',
			strengths TEXT NOT NULL DEFAULT '[]',
			weaknesses TEXT NOT NULL DEFAULT '[]',
			study_streak INTEGER NOT NULL DEFAULT 0,
			last_study_date TIMESTAMP NULL,
			target_score DOUBLE PRECISION NULL,
			progress_to_target DOUBLE PRECISION NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"telegram_links", `
		CREATE TABLE IF NOT EXISTS telegram_links (
			user_id TEXT PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
}

// Migrate creates necessary tables if they don't exist
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}
