package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Archive keeps the full conversation history in SQLite. The JSON
// document holds only the capped recent window; the archive never drops
// turns. It is optional and best-effort: the assistant runs fine
// without it.
type Archive struct {
	db *sql.DB
}

// NewArchive creates/opens the archive database at path.
func NewArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	// Single-process writer. One shared connection avoids writer lock
	// contention under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	a := &Archive{db: db}
	if err := a.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_turns_created ON turns(created_at_ms);`,
	}
	for _, stmt := range stmts {
		if _, err := a.db.Exec(stmt); err != nil {
			return fmt.Errorf("init archive schema: %w", err)
		}
	}
	return nil
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// AppendTurn records one side of a conversation turn. Role is "user"
// or "bot".
func (a *Archive) AppendTurn(role, content string) error {
	if content == "" {
		return nil
	}
	_, err := a.db.Exec(
		`INSERT INTO turns (id, role, content, created_at_ms) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), role, content, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("archive turn: %w", err)
	}
	return nil
}

// ArchivedTurn is a single archived conversation entry.
type ArchivedTurn struct {
	ID        string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Recent returns the most recent n archived turns, oldest first.
func (a *Archive) Recent(n int) ([]ArchivedTurn, error) {
	rows, err := a.db.Query(
		`SELECT id, role, content, created_at_ms FROM turns ORDER BY created_at_ms DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var out []ArchivedTurn
	for rows.Next() {
		var t ArchivedTurn
		var ms int64
		if err := rows.Scan(&t.ID, &t.Role, &t.Content, &ms); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		t.CreatedAt = time.UnixMilli(ms)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Count reports the total number of archived turns.
func (a *Archive) Count() (int, error) {
	var n int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM turns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count archive: %w", err)
	}
	return n, nil
}
