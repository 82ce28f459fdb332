package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jakekang28/GenAIHCI-sub001/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() error {
	pgr.pool.Close()
	return nil
}

// pgError translates driver errors into domain errors. Context errors pass through untouched.
func pgError(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrSessionNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation:
		return domain.ErrSessionNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return domain.ErrDuplicateCode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrUnexpectedDatabase, err)
	}
}

func (pgr *PostgresRepo) CreateSession(ctx context.Context, s domain.Session) error {
	tx, err := pgr.pool.Begin(ctx)
	if err != nil {
		return pgError(err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"INSERT INTO sessions(id, code, status, current_stage, created_at) VALUES($1, $2, $3, $4, $5)",
		s.ID, s.Code, s.Status, s.CurrentStage, s.CreatedAt)
	if err != nil {
		return pgError(err)
	}

	for _, p := range s.Participants {
		_, err = tx.Exec(ctx,
			"INSERT INTO session_participants(session_id, user_id, display_name, is_host, is_active) VALUES($1, $2, $3, $4, $5)",
			s.ID, p.UserID, p.DisplayName, p.IsHost, p.IsActive)
		if err != nil {
			return pgError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return pgError(err)
	}
	return nil
}

// AddParticipant registers userID in the session, reactivating a previous record.
func (pgr *PostgresRepo) AddParticipant(ctx context.Context, sessionID string, p domain.Participant) error {
	_, err := pgr.pool.Exec(ctx, `
		INSERT INTO session_participants(session_id, user_id, display_name, is_host, is_active)
		VALUES($1, $2, $3, $4, TRUE)
		ON CONFLICT (session_id, user_id) DO UPDATE SET display_name = EXCLUDED.display_name, is_active = TRUE`,
		sessionID, p.UserID, p.DisplayName, p.IsHost)
	if err != nil {
		return pgError(err)
	}
	return nil
}

func (pgr *PostgresRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	s := domain.Session{ID: id}
	var hmw []byte

	row := pgr.pool.QueryRow(ctx,
		"SELECT code, status, current_stage, final_pov, final_hmw, final_question, created_at FROM sessions WHERE id = $1", id)
	err := row.Scan(&s.Code, &s.Status, &s.CurrentStage,
		&s.FinalSelections.PovContent, &hmw, &s.FinalSelections.QuestionContent, &s.CreatedAt)
	if err != nil {
		return domain.Session{}, pgError(err)
	}
	if len(hmw) > 0 {
		if err := json.Unmarshal(hmw, &s.FinalSelections.HmwContents); err != nil {
			return domain.Session{}, fmt.Errorf("%w: %w", domain.ErrUnexpectedDatabase, err)
		}
	}

	rows, err := pgr.pool.Query(ctx,
		"SELECT user_id, display_name, is_host, is_active FROM session_participants WHERE session_id = $1 ORDER BY joined_at, user_id", id)
	if err != nil {
		return domain.Session{}, pgError(err)
	}
	defer rows.Close()

	s.Participants = []domain.Participant{}
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.UserID, &p.DisplayName, &p.IsHost, &p.IsActive); err != nil {
			return domain.Session{}, pgError(err)
		}
		s.Participants = append(s.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return domain.Session{}, pgError(err)
	}

	return s, nil
}

func (pgr *PostgresRepo) GetSessionState(ctx context.Context, id, key string) ([]domain.StateEntry, error) {
	rows, err := pgr.pool.Query(ctx,
		"SELECT value, updated_at FROM session_state WHERE session_id = $1 AND key = $2 ORDER BY updated_at", id, key)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	entries := []domain.StateEntry{}
	for rows.Next() {
		var e domain.StateEntry
		var value []byte
		if err := rows.Scan(&value, &e.UpdatedAt); err != nil {
			return nil, pgError(err)
		}
		e.Value = value
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError(err)
	}
	return entries, nil
}

func (pgr *PostgresRepo) SetSessionState(ctx context.Context, id, key string, value json.RawMessage) error {
	_, err := pgr.pool.Exec(ctx, `
		INSERT INTO session_state(session_id, key, value, updated_at) VALUES($1, $2, $3, NOW())
		ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		id, key, []byte(value))
	if err != nil {
		return pgError(err)
	}
	return nil
}

func (pgr *PostgresRepo) UpdateSessionStatus(ctx context.Context, id, status string, stage *string) error {
	tag, err := pgr.pool.Exec(ctx,
		"UPDATE sessions SET status = $2, current_stage = COALESCE($3, current_stage) WHERE id = $1", id, status, stage)
	if err != nil {
		return pgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (pgr *PostgresRepo) SetFinalSelections(ctx context.Context, id string, sel domain.FinalSelections) error {
	var hmw []byte
	if sel.HmwContents != nil {
		var err error
		if hmw, err = json.Marshal(sel.HmwContents); err != nil {
			return err
		}
	}
	tag, err := pgr.pool.Exec(ctx, `
		UPDATE sessions SET
			final_pov = COALESCE($2, final_pov),
			final_hmw = COALESCE($3::jsonb, final_hmw),
			final_question = COALESCE($4, final_question)
		WHERE id = $1`,
		id, sel.PovContent, hmw, sel.QuestionContent)
	if err != nil {
		return pgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (pgr *PostgresRepo) SubmitContribution(ctx context.Context, id, userID, displayName, kind, content string) (string, error) {
	row := pgr.pool.QueryRow(ctx, `
		INSERT INTO contributions(id, session_id, user_id, display_name, kind, content)
		VALUES($1, $2, $3, $4, $5, $6) RETURNING id`,
		uuid.NewString(), id, userID, displayName, kind, content)

	var contributionID string
	if err := row.Scan(&contributionID); err != nil {
		return "", pgError(err)
	}
	return contributionID, nil
}
