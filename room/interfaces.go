package room

import (
	"context"
	"encoding/json"

	"github.com/jakekang28/GenAIHCI-sub001/domain"
)

// SessionStore is the durable-state collaborator. Room state is only mirrored into it;
// the live view never waits on it to be correct.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (domain.Session, error)
	GetSessionState(ctx context.Context, id, key string) ([]domain.StateEntry, error)
	SetSessionState(ctx context.Context, id, key string, value json.RawMessage) error
	UpdateSessionStatus(ctx context.Context, id, status string, stage *string) error
	SetFinalSelections(ctx context.Context, id string, sel domain.FinalSelections) error
	SubmitContribution(ctx context.Context, id, userID, displayName, kind, content string) (string, error)
}

// Conn is one live client connection.
type Conn interface {
	ID() string
	Send(ev Event) error
	Close(reason string)
}

// DurableWriter runs best-effort writes against the store outside the coordinator.
type DurableWriter interface {
	Submit(op, roomID string, fn func(ctx context.Context, store SessionStore) error)
}
