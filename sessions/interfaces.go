package sessions

import (
	"context"
	"encoding/json"

	"github.com/jakekang28/GenAIHCI-sub001/domain"
	"github.com/jakekang28/GenAIHCI-sub001/room"
)

type Repo interface {
	CreateSession(ctx context.Context, s domain.Session) error
	AddParticipant(ctx context.Context, sessionID string, p domain.Participant) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
	SetSessionState(ctx context.Context, id, key string, value json.RawMessage) error
}

type SessionService interface {
	Create(ctx context.Context, hostUserID, hostName string) (domain.Session, error)
	Get(ctx context.Context, id string) (domain.Session, error)
	AddParticipant(ctx context.Context, id, userID, displayName string) (domain.Participant, error)
	SetVotingPolicy(ctx context.Context, id string, policy room.VotingPolicy) error
}
