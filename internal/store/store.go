// Package store persists the agent's working state and activity history
// in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"jockey-agent/internal/decision"
)

// AgentState is the snapshot written after every state-changing action.
// One row holds the latest state; history lives in the activity log.
type AgentState struct {
	Player     decision.PlayerState   `json:"player"`
	Counters   decision.DailyCounters `json:"counters"`
	LastAction time.Time              `json:"last_action"`
}

// Activity is one append-only log record.
type Activity struct {
	ID     string
	Kind   string
	Detail string
	At     time.Time
}

type Store struct {
	db *sql.DB
}

// Open creates the database file, its parent directory, and the schema
// if any of them are missing. WAL keeps the event-pump writes from
// blocking reads.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS agent_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activity_log (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		detail TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_log(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveAgentState upserts the single state row.
func (s *Store) SaveAgentState(ctx context.Context, st AgentState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal agent state: %w", err)
	}

	query := `
		INSERT INTO agent_state (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, string(payload), time.Now().Unix()); err != nil {
		return fmt.Errorf("save agent state: %w", err)
	}
	return nil
}

// LoadAgentState returns the saved state, or (nil, nil) when the agent
// has never persisted one.
func (s *Store) LoadAgentState(ctx context.Context) (*AgentState, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM agent_state WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load agent state: %w", err)
	}

	var st AgentState
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return nil, fmt.Errorf("unmarshal agent state: %w", err)
	}
	return &st, nil
}

// AppendActivity writes one log record and returns its id.
func (s *Store) AppendActivity(ctx context.Context, kind, detail string) (string, error) {
	id := NewID()
	query := `INSERT INTO activity_log (id, kind, detail, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, id, kind, detail, time.Now().Unix()); err != nil {
		return "", fmt.Errorf("append activity: %w", err)
	}
	return id, nil
}

// RecentActivity returns up to limit records, newest first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	query := `
		SELECT id, kind, detail, created_at
		FROM activity_log ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.Kind, &a.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		a.At = time.Unix(createdAt, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}
