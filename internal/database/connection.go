package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. DB_TYPE selects the
// driver: "sqlite" opens (or creates) a local file, anything else is treated
// as postgres and DATABASE_URL must be set.
func Connect() error {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "postgres"
	}

	var db *sqlx.DB
	var err error

	if dbType == "sqlite" {
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = filepath.Join("data", "recall.db")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create data directory: %v", err)
			}
		}
		db, err = sqlx.Connect("sqlite3", path)
		if err != nil {
			return fmt.Errorf("failed to connect to sqlite: %v", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
	}

	DB = db

	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	// One record per (user, flashcard); the composite primary key is what
	// makes concurrent lazy creation safe.
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS review_progress (
			user_id BIGINT NOT NULL,
			flashcard_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'new',
			correct_count INTEGER NOT NULL DEFAULT 0,
			incorrect_count INTEGER NOT NULL DEFAULT 0,
			ease_factor REAL NOT NULL DEFAULT 2.5,
			interval INTEGER NOT NULL DEFAULT 1,
			last_reviewed_at TIMESTAMP,
			next_review_at TIMESTAMP,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, flashcard_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create review_progress table: %v", err)
	}

	// Covering index for the due queue scan
	_, err = DB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_review_progress_due
		ON review_progress (user_id, next_review_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create due index: %v", err)
	}

	// SQLite and postgres spell auto-increment keys differently
	logID := "BIGSERIAL PRIMARY KEY"
	if DB.DriverName() == "sqlite3" {
		logID = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS review_log (
			id ` + logID + `,
			user_id BIGINT NOT NULL,
			flashcard_id BIGINT NOT NULL,
			outcome INTEGER NOT NULL,
			lapse BOOLEAN NOT NULL DEFAULT FALSE,
			interval INTEGER NOT NULL,
			ease_factor REAL NOT NULL,
			status TEXT NOT NULL,
			reviewed_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create review_log table: %v", err)
	}

	_, err = DB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_review_log_user
		ON review_log (user_id, reviewed_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create review_log index: %v", err)
	}

	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS study_settings (
			user_id BIGINT PRIMARY KEY,
			cards_per_session INTEGER NOT NULL DEFAULT 20,
			digest_hour INTEGER NOT NULL DEFAULT 9,
			digest_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create study_settings table: %v", err)
	}

	return nil
}
