// Package audit appends a record of completed turns, confirmed dangerous
// commands, and context switches. Recording is fire-and-forget: failures are
// logged and never surfaced to the caller.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id         TEXT PRIMARY KEY,
	actor      TEXT NOT NULL,
	action     TEXT NOT NULL,
	subject    TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Recorder is the audit boundary consumed by the dispatcher and gate.
type Recorder interface {
	Record(actor, action, subject string, metadata map[string]string)
}

// Trail is a SQLite-backed Recorder.
type Trail struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the audit database at path.
func Open(path string, logger *zap.Logger) (*Trail, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return &Trail{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing database handle. The schema is created if missing.
func NewWithDB(db *sql.DB, logger *zap.Logger) (*Trail, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return &Trail{db: db, logger: logger}, nil
}

// Record appends one audit entry. Errors are logged, never returned.
func (t *Trail) Record(actor, action, subject string, metadata map[string]string) {
	meta := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			meta = string(b)
		}
	}

	_, err := t.db.Exec(
		"INSERT INTO audit_log (id, actor, action, subject, metadata) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), actor, action, subject, meta,
	)
	if err != nil {
		t.logger.Warn("audit record failed",
			zap.String("action", action),
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// Close releases the underlying database handle.
func (t *Trail) Close() error {
	return t.db.Close()
}

// Nop is a Recorder that discards everything. Used in tests.
type Nop struct{}

func (Nop) Record(actor, action, subject string, metadata map[string]string) {}
