// Package memory implements the persistent memory store used by the memory
// tools and commands: free-text entries grouped by namespace, recalled by
// substring query.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_entries (
	id         TEXT PRIMARY KEY,
	namespace  TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_memory_namespace ON memory_entries(namespace);
`

// Entry is one stored memory.
type Entry struct {
	ID        string
	Namespace string
	Content   string
	CreatedAt time.Time
}

// Store is a SQLite-backed memory store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the memory database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize memory schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing database handle. The schema is created if missing.
func NewWithDB(db *sql.DB, logger *zap.Logger) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize memory schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Store saves an entry and returns its generated identifier.
func (s *Store) Store(ctx context.Context, namespace, content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("memory content cannot be empty")
	}
	if namespace == "" {
		namespace = "default"
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO memory_entries (id, namespace, content) VALUES (?, ?, ?)",
		id, namespace, content,
	)
	if err != nil {
		return "", fmt.Errorf("failed to store memory: %w", err)
	}

	s.logger.Debug("memory stored",
		zap.String("id", id),
		zap.String("namespace", namespace),
		zap.Int("content_len", len(content)))
	return id, nil
}

// Recall returns up to limit entries matching the query, newest first.
// An empty namespace searches all namespaces.
func (s *Store) Recall(ctx context.Context, query, namespace string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	q := `SELECT id, namespace, content, created_at FROM memory_entries
	      WHERE content LIKE ?`
	args := []any{"%" + query + "%"}
	if namespace != "" {
		q += " AND namespace = ?"
		args = append(args, namespace)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to recall memories: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Namespace, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
