package conversation

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLitePersistence implements SessionPersistence on a SQLite database.
// Each session is stored as one JSON document.
type SQLitePersistence struct {
	db *sql.DB
}

// NewSQLitePersistence opens (or creates) the database at path.
func NewSQLitePersistence(path string) (*SQLitePersistence, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		last_activity DATETIME NOT NULL
	);`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &SQLitePersistence{db: db}, nil
}

// SaveSessions replaces the stored sessions with sessions in one transaction.
func (s *SQLitePersistence) SaveSessions(sessions map[string]*State) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO sessions (id, state, last_activity) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for id, st := range sessions {
		if st == nil {
			continue
		}
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to marshal session %s: %w", id, err)
		}
		if _, err := stmt.Exec(id, string(data), st.LastActivity.UTC()); err != nil {
			return fmt.Errorf("failed to insert session %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sessions: %w", err)
	}
	return nil
}

// LoadSessions reads every stored session.
func (s *SQLitePersistence) LoadSessions() (map[string]*State, error) {
	rows, err := s.db.Query(`SELECT id, state FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := make(map[string]*State)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		var st State
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
		}
		sessions[id] = &st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	return sessions, nil
}

// Close releases the database handle.
func (s *SQLitePersistence) Close() error {
	return s.db.Close()
}
