package storage_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jakekang28/GenAIHCI-sub001/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionRepo interface {
	CreateSession(ctx context.Context, s domain.Session) error
	AddParticipant(ctx context.Context, sessionID string, p domain.Participant) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
	GetSessionState(ctx context.Context, id, key string) ([]domain.StateEntry, error)
	SetSessionState(ctx context.Context, id, key string, value json.RawMessage) error
	UpdateSessionStatus(ctx context.Context, id, status string, stage *string) error
	SetFinalSelections(ctx context.Context, id string, sel domain.FinalSelections) error
	SubmitContribution(ctx context.Context, id, userID, displayName, kind, content string) (string, error)
}

func newSession(code string) domain.Session {
	return domain.Session{
		ID:           uuid.NewString(),
		Code:         code,
		Status:       domain.SessionStatusActive,
		CurrentStage: "setup",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		Participants: []domain.Participant{
			{UserID: "alice", DisplayName: "Alice", IsHost: true, IsActive: true},
		},
	}
}

func strPtr(s string) *string { return &s }

// runRepoContract exercises the behaviour every session store must share.
func runRepoContract(t *testing.T, repo sessionRepo) {
	ctx := context.Background()
	session := newSession("CODE01")

	t.Run("CreateSession", func(t *testing.T) {
		require.NoError(t, repo.CreateSession(ctx, session))
	})

	t.Run("CreateSession_DuplicateCode", func(t *testing.T) {
		err := repo.CreateSession(ctx, newSession("CODE01"))
		assert.ErrorIs(t, err, domain.ErrDuplicateCode)
	})

	t.Run("GetSession", func(t *testing.T) {
		got, err := repo.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "CODE01", got.Code)
		assert.Equal(t, domain.SessionStatusActive, got.Status)
		assert.Equal(t, "setup", got.CurrentStage)
		assert.True(t, session.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, session.Participants, got.Participants)
		assert.Nil(t, got.FinalSelections.PovContent)
		assert.Nil(t, got.FinalSelections.HmwContents)
	})

	t.Run("GetSession_NotFound", func(t *testing.T) {
		_, err := repo.GetSession(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("AddParticipant", func(t *testing.T) {
		require.NoError(t, repo.AddParticipant(ctx, session.ID, domain.Participant{UserID: "bob", DisplayName: "Bob"}))
		// returning host keeps the flag
		require.NoError(t, repo.AddParticipant(ctx, session.ID, domain.Participant{UserID: "alice", DisplayName: "Alice B"}))

		got, err := repo.GetSession(ctx, session.ID)
		require.NoError(t, err)
		alice, ok := got.Participant("alice")
		require.True(t, ok)
		assert.True(t, alice.IsHost)
		assert.Equal(t, "Alice B", alice.DisplayName)
		bob, ok := got.Participant("bob")
		require.True(t, ok)
		assert.True(t, bob.IsActive)
		assert.False(t, bob.IsHost)
	})

	t.Run("AddParticipant_UnknownSession", func(t *testing.T) {
		err := repo.AddParticipant(ctx, "ghost", domain.Participant{UserID: "bob", DisplayName: "Bob"})
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("SessionState", func(t *testing.T) {
		entries, err := repo.GetSessionState(ctx, session.ID, "voting_policy")
		require.NoError(t, err)
		assert.Empty(t, entries)

		require.NoError(t, repo.SetSessionState(ctx, session.ID, "voting_policy", json.RawMessage(`{"maxSelectionsByType":{"hmw_question":2}}`)))
		require.NoError(t, repo.SetSessionState(ctx, session.ID, "voting_policy", json.RawMessage(`{"maxSelectionsByType":{"hmw_question":3}}`)))

		entries, err = repo.GetSessionState(ctx, session.ID, "voting_policy")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.JSONEq(t, `{"maxSelectionsByType":{"hmw_question":3}}`, string(entries[0].Value))
		assert.False(t, entries[0].UpdatedAt.IsZero())

		err = repo.SetSessionState(ctx, "ghost", "voting_policy", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("UpdateSessionStatus", func(t *testing.T) {
		require.NoError(t, repo.UpdateSessionStatus(ctx, session.ID, domain.SessionStatusActive, strPtr("selection")))
		require.NoError(t, repo.UpdateSessionStatus(ctx, session.ID, domain.SessionStatusCompleted, nil))

		got, err := repo.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusCompleted, got.Status)
		assert.Equal(t, "selection", got.CurrentStage)

		assert.ErrorIs(t, repo.UpdateSessionStatus(ctx, "ghost", domain.SessionStatusActive, nil), domain.ErrSessionNotFound)
	})

	t.Run("SetFinalSelections", func(t *testing.T) {
		require.NoError(t, repo.SetFinalSelections(ctx, session.ID, domain.FinalSelections{PovContent: strPtr("pov")}))
		require.NoError(t, repo.SetFinalSelections(ctx, session.ID, domain.FinalSelections{HmwContents: []string{"h1", "h2"}}))

		got, err := repo.GetSession(ctx, session.ID)
		require.NoError(t, err)
		require.NotNil(t, got.FinalSelections.PovContent)
		assert.Equal(t, "pov", *got.FinalSelections.PovContent)
		assert.Equal(t, []string{"h1", "h2"}, got.FinalSelections.HmwContents)
		assert.Nil(t, got.FinalSelections.QuestionContent)

		err = repo.SetFinalSelections(ctx, "ghost", domain.FinalSelections{PovContent: strPtr("x")})
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("SubmitContribution", func(t *testing.T) {
		id, err := repo.SubmitContribution(ctx, session.ID, "bob", "Bob", "pov_statement", "idea")
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		_, err = repo.SubmitContribution(ctx, "ghost", "bob", "Bob", "pov_statement", "idea")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}
