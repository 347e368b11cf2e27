// Package stores implements persistence for session records on top of the
// db package.
package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/saralegui-solutions/claude-assistant/internal/data/db"
	"github.com/saralegui-solutions/claude-assistant/internal/orchestrator"
)

// SessionStore persists session summaries, their conversations, and their
// artifact manifests.
type SessionStore struct {
	db *db.DB
}

var _ orchestrator.SummaryStore = (*SessionStore)(nil)

// NewSessionStore creates a session store.
func NewSessionStore(database *db.DB) *SessionStore {
	return &SessionStore{db: database}
}

// Save upserts the full session record in one transaction. Saving the same
// session twice replaces its conversation and artifacts, so a crash between
// save and exit cannot leave duplicates.
func (s *SessionStore) Save(ctx context.Context, sum orchestrator.Summary) error {
	if sum.SessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, model, phase, reason, iterations, started_at, ended_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				model = excluded.model,
				phase = excluded.phase,
				reason = excluded.reason,
				iterations = excluded.iterations,
				started_at = excluded.started_at,
				ended_at = excluded.ended_at`,
			sum.SessionID, sum.Model, string(sum.Phase), string(sum.Reason),
			sum.Iterations, sum.StartedAt, sum.EndedAt)
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sum.SessionID); err != nil {
			return fmt.Errorf("clear messages: %w", err)
		}
		for i, msg := range sum.Conversation {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO messages (session_id, seq, role, content)
				VALUES (?, ?, ?, ?)`,
				sum.SessionID, i, string(msg.Role), msg.Content); err != nil {
				return fmt.Errorf("insert message %d: %w", i, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE session_id = ?`, sum.SessionID); err != nil {
			return fmt.Errorf("clear artifacts: %w", err)
		}
		for _, path := range sum.Artifacts {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO artifacts (session_id, path) VALUES (?, ?)`,
				sum.SessionID, path); err != nil {
				return fmt.Errorf("insert artifact: %w", err)
			}
		}

		return nil
	})
}

// Get returns one session with its full conversation and artifacts.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (orchestrator.Summary, error) {
	var sum orchestrator.Summary
	var phase, reason string

	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT id, model, phase, reason, iterations, started_at, ended_at
		FROM sessions WHERE id = ?`, sessionID).
		Scan(&sum.SessionID, &sum.Model, &phase, &reason, &sum.Iterations, &sum.StartedAt, &sum.EndedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return orchestrator.Summary{}, ErrNotFound
	}
	if err != nil {
		return orchestrator.Summary{}, fmt.Errorf("get session: %w", err)
	}
	sum.Phase = orchestrator.Phase(phase)
	sum.Reason = orchestrator.StopReason(reason)

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT role, content FROM messages
		WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return orchestrator.Summary{}, fmt.Errorf("get messages: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return orchestrator.Summary{}, fmt.Errorf("scan message: %w", err)
		}
		sum.Conversation = append(sum.Conversation, orchestrator.Message{
			Role:    orchestrator.Role(role),
			Content: content,
		})
	}
	if err := rows.Err(); err != nil {
		return orchestrator.Summary{}, fmt.Errorf("iterate messages: %w", err)
	}

	arts, err := s.db.Conn().QueryContext(ctx, `
		SELECT path FROM artifacts WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return orchestrator.Summary{}, fmt.Errorf("get artifacts: %w", err)
	}
	defer func() { _ = arts.Close() }()
	for arts.Next() {
		var path string
		if err := arts.Scan(&path); err != nil {
			return orchestrator.Summary{}, fmt.Errorf("scan artifact: %w", err)
		}
		sum.Artifacts = append(sum.Artifacts, path)
	}
	if err := arts.Err(); err != nil {
		return orchestrator.Summary{}, fmt.Errorf("iterate artifacts: %w", err)
	}

	return sum, nil
}

// List returns recent sessions, newest first, without conversations. A
// non-positive limit means no limit.
func (s *SessionStore) List(ctx context.Context, limit int) ([]orchestrator.Summary, error) {
	query := `
		SELECT id, model, phase, reason, iterations, started_at, ended_at
		FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []orchestrator.Summary
	for rows.Next() {
		var sum orchestrator.Summary
		var phase, reason string
		if err := rows.Scan(&sum.SessionID, &sum.Model, &phase, &reason,
			&sum.Iterations, &sum.StartedAt, &sum.EndedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.Phase = orchestrator.Phase(phase)
		sum.Reason = orchestrator.StopReason(reason)
		out = append(out, sum)
	}
	return out, rows.Err()
}
