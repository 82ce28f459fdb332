package room

import (
	"context"
	"fmt"

	"github.com/jakekang28/GenAIHCI-sub001/domain"
	"github.com/rs/zerolog/log"
)

// changeStage moves the room to next. Any stage may follow any other; only the host decides.
func (c *coordinator) changeStage(conn Conn, req stageRequest) error {
	if req.RoomID == "" {
		return fmt.Errorf("%w: roomId is required", ErrInvalidRequest)
	}
	m, r, err := c.memberOf(conn, req.RoomID)
	if err != nil {
		return err
	}
	if !req.NewStage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidRequest, req.NewStage)
	}
	if !r.isHost(m.UserID) {
		return fmt.Errorf("%w: only the host can change the stage", ErrNotHost)
	}

	r.stage = req.NewStage
	if r.stage == StageContributions && r.contributions == nil {
		r.contributions = newContributionStore()
	}
	c.persistStage(r.id, r.stage)

	log.Info().Str("room_id", r.id).Str("stage", string(r.stage)).Str("user_id", m.UserID).Msg("stage changed")
	c.broadcast(r, EventStage, stagePayload{RoomID: r.id, Stage: r.stage, ChangedBy: m.UserID})
	return nil
}

// reset sends the room back to setup, dropping voting rounds and optionally contributions.
func (c *coordinator) reset(conn Conn, req resetRequest) error {
	if req.RoomID == "" {
		return fmt.Errorf("%w: roomId is required", ErrInvalidRequest)
	}
	m, r, err := c.memberOf(conn, req.RoomID)
	if err != nil {
		return err
	}
	if !r.isHost(m.UserID) {
		return fmt.Errorf("%w: only the host can reset the room", ErrNotHost)
	}

	r.stage = StageSetup
	c.cancelRounds(r)
	if req.ClearContributions {
		r.contributions = newContributionStore()
	}
	c.persistStage(r.id, r.stage)

	log.Info().Str("room_id", r.id).Bool("clear_contributions", req.ClearContributions).Msg("room reset")
	c.broadcast(r, EventReset, resetPayload{RoomID: r.id, ClearContributions: req.ClearContributions})
	c.broadcast(r, EventStage, stagePayload{RoomID: r.id, Stage: r.stage, ChangedBy: m.UserID})
	if req.ClearContributions {
		c.broadcastContributions(r, "")
	}
	return nil
}

func (c *coordinator) persistStage(roomID string, stage Stage) {
	status := domain.SessionStatusActive
	if stage == StageCompleted {
		status = domain.SessionStatusCompleted
	}
	s := string(stage)
	c.writer.Submit("update-session-status", roomID, func(ctx context.Context, store SessionStore) error {
		return store.UpdateSessionStatus(ctx, roomID, status, &s)
	})
}
