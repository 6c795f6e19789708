package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Open connects to the SQLite database and runs schema migrations.
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", path)
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return conn, nil
}

func migrate(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			original_name TEXT NOT NULL,
			stored_path TEXT NOT NULL UNIQUE,
			mime_type TEXT NOT NULL,
			size_bytes INTEGER NOT NULL DEFAULT 0,
			uploaded_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS flashcards (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			question TEXT NOT NULL CHECK(length(trim(question)) > 0),
			answer TEXT NOT NULL CHECK(length(trim(answer)) > 0),
			tags TEXT NOT NULL DEFAULT '[]',
			difficulty TEXT NOT NULL DEFAULT 'medium' CHECK(difficulty IN ('easy','medium','hard')),
			next_review DATETIME NOT NULL,
			review_count INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			incorrect_count INTEGER NOT NULL DEFAULT 0,
			last_reviewed DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS study_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			flashcard_ids TEXT NOT NULL DEFAULT '[]',
			start_time DATETIME NOT NULL,
			end_time DATETIME,
			total_time_ms INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			incorrect_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS study_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			flashcard_id TEXT NOT NULL,
			result TEXT NOT NULL CHECK(result IN ('correct','incorrect','skip')),
			time_taken_ms INTEGER NOT NULL DEFAULT 0,
			recorded_at DATETIME NOT NULL,
			FOREIGN KEY(session_id) REFERENCES study_sessions(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_flashcards_user_created ON flashcards(user_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_flashcards_user_next_review ON flashcards(user_id, next_review);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_start ON study_sessions(user_id, start_time DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_results_session ON study_results(session_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	return nil
}
