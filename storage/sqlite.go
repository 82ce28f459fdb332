package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jakekang28/GenAIHCI-sub001/domain"
	_ "modernc.org/sqlite"
)

// SQLiteRepo keeps sessions in a single local database file. Meant for development
// and single-node deployments.
type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepo{db: db}
	if err := repo.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) initSchema() error {
	_, err := r.db.Exec(sqliteSchema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'active',
    current_stage TEXT NOT NULL DEFAULT 'setup',
    final_pov TEXT,
    final_hmw TEXT,
    final_question TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS session_participants (
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    is_host INTEGER NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 1,
    joined_at INTEGER NOT NULL,
    PRIMARY KEY (session_id, user_id)
);

CREATE TABLE IF NOT EXISTS session_state (
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (session_id, key)
);

CREATE TABLE IF NOT EXISTS contributions (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    kind TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contributions_session_kind ON contributions(session_id, kind);
`

func sqliteError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrSessionNotFound
	case strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
		return domain.ErrSessionNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return domain.ErrDuplicateCode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrUnexpectedDatabase, err)
	}
}

func (r *SQLiteRepo) CreateSession(ctx context.Context, s domain.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return sqliteError(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sessions(id, code, status, current_stage, created_at) VALUES(?, ?, ?, ?, ?)",
		s.ID, s.Code, s.Status, s.CurrentStage, s.CreatedAt.UnixMilli())
	if err != nil {
		return sqliteError(err)
	}

	joined := time.Now().UnixMilli()
	for i, p := range s.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO session_participants(session_id, user_id, display_name, is_host, is_active, joined_at) VALUES(?, ?, ?, ?, ?, ?)",
			s.ID, p.UserID, p.DisplayName, p.IsHost, p.IsActive, joined+int64(i))
		if err != nil {
			return sqliteError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return sqliteError(err)
	}
	return nil
}

func (r *SQLiteRepo) AddParticipant(ctx context.Context, sessionID string, p domain.Participant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_participants(session_id, user_id, display_name, is_host, is_active, joined_at)
		VALUES(?, ?, ?, ?, 1, ?)
		ON CONFLICT (session_id, user_id) DO UPDATE SET display_name = excluded.display_name, is_active = 1`,
		sessionID, p.UserID, p.DisplayName, p.IsHost, time.Now().UnixMilli())
	if err != nil {
		return sqliteError(err)
	}
	return nil
}

func (r *SQLiteRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	s := domain.Session{ID: id}
	var pov, hmw, question sql.NullString
	var created int64

	row := r.db.QueryRowContext(ctx,
		"SELECT code, status, current_stage, final_pov, final_hmw, final_question, created_at FROM sessions WHERE id = ?", id)
	if err := row.Scan(&s.Code, &s.Status, &s.CurrentStage, &pov, &hmw, &question, &created); err != nil {
		return domain.Session{}, sqliteError(err)
	}
	s.CreatedAt = time.UnixMilli(created)
	if pov.Valid {
		s.FinalSelections.PovContent = &pov.String
	}
	if question.Valid {
		s.FinalSelections.QuestionContent = &question.String
	}
	if hmw.Valid {
		if err := json.Unmarshal([]byte(hmw.String), &s.FinalSelections.HmwContents); err != nil {
			return domain.Session{}, fmt.Errorf("%w: %w", domain.ErrUnexpectedDatabase, err)
		}
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, display_name, is_host, is_active FROM session_participants WHERE session_id = ? ORDER BY joined_at, user_id", id)
	if err != nil {
		return domain.Session{}, sqliteError(err)
	}
	defer rows.Close()

	s.Participants = []domain.Participant{}
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.UserID, &p.DisplayName, &p.IsHost, &p.IsActive); err != nil {
			return domain.Session{}, sqliteError(err)
		}
		s.Participants = append(s.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return domain.Session{}, sqliteError(err)
	}
	return s, nil
}

func (r *SQLiteRepo) GetSessionState(ctx context.Context, id, key string) ([]domain.StateEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT value, updated_at FROM session_state WHERE session_id = ? AND key = ? ORDER BY updated_at", id, key)
	if err != nil {
		return nil, sqliteError(err)
	}
	defer rows.Close()

	entries := []domain.StateEntry{}
	for rows.Next() {
		var value string
		var updated int64
		if err := rows.Scan(&value, &updated); err != nil {
			return nil, sqliteError(err)
		}
		entries = append(entries, domain.StateEntry{Value: json.RawMessage(value), UpdatedAt: time.UnixMilli(updated)})
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError(err)
	}
	return entries, nil
}

func (r *SQLiteRepo) SetSessionState(ctx context.Context, id, key string, value json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_state(session_id, key, value, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		id, key, string(value), time.Now().UnixMilli())
	if err != nil {
		return sqliteError(err)
	}
	return nil
}

func (r *SQLiteRepo) UpdateSessionStatus(ctx context.Context, id, status string, stage *string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET status = ?, current_stage = COALESCE(?, current_stage) WHERE id = ?", status, stage, id)
	if err != nil {
		return sqliteError(err)
	}
	return expectRow(res)
}

func (r *SQLiteRepo) SetFinalSelections(ctx context.Context, id string, sel domain.FinalSelections) error {
	var hmw *string
	if sel.HmwContents != nil {
		raw, err := json.Marshal(sel.HmwContents)
		if err != nil {
			return err
		}
		encoded := string(raw)
		hmw = &encoded
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			final_pov = COALESCE(?, final_pov),
			final_hmw = COALESCE(?, final_hmw),
			final_question = COALESCE(?, final_question)
		WHERE id = ?`,
		sel.PovContent, hmw, sel.QuestionContent, id)
	if err != nil {
		return sqliteError(err)
	}
	return expectRow(res)
}

func (r *SQLiteRepo) SubmitContribution(ctx context.Context, id, userID, displayName, kind, content string) (string, error) {
	contributionID := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contributions(id, session_id, user_id, display_name, kind, content, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		contributionID, id, userID, displayName, kind, content, time.Now().UnixMilli())
	if err != nil {
		return "", sqliteError(err)
	}
	return contributionID, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return sqliteError(err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
