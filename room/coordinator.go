package room

import (
	"time"

	"github.com/rs/zerolog/log"
)

type member struct {
	Member
	conn Conn
}

// roomState is everything the process knows about one live room.
// It exists while at least one connection is registered.
type roomState struct {
	id            string
	members       map[string]*member
	order         []string
	stage         Stage
	contributions *contributionStore
	rounds        map[Kind]*VotingRound
	// retired holds tokens of rounds dropped by a reset; they are never recovered
	retired       map[string]bool
}

func newRoomState(id string) *roomState {
	return &roomState{
		id:      id,
		members: make(map[string]*member),
		stage:   StageSetup,
		rounds:  make(map[Kind]*VotingRound),
		retired: make(map[string]bool),
	}
}

type sendTask struct {
	to Conn
	ev Event
}

// coordinator owns all live rooms. It is not safe for concurrent use;
// the Hub serializes every call onto a single goroutine.
type coordinator struct {
	rooms    map[string]*roomState
	connRoom map[string]string
	writer   DurableWriter
	now      func() time.Time
	newID    func() string
	tasks    []sendTask
}

func newCoordinator(writer DurableWriter, now func() time.Time, newID func() string) *coordinator {
	return &coordinator{
		rooms:    make(map[string]*roomState),
		connRoom: make(map[string]string),
		writer:   writer,
		now:      now,
		newID:    newID,
	}
}

// memberOf resolves the member record of conn inside roomID.
func (c *coordinator) memberOf(conn Conn, roomID string) (*member, *roomState, error) {
	r, ok := c.rooms[roomID]
	if !ok {
		return nil, nil, ErrNotAMember
	}
	m, ok := r.members[conn.ID()]
	if !ok {
		return nil, nil, ErrNotAMember
	}
	return m, r, nil
}

func (c *coordinator) teardown(r *roomState) {
	c.cancelRounds(r)
	delete(c.rooms, r.id)
	log.Info().Str("room_id", r.id).Msg("room torn down, last connection left")
}

// flush hands over the events produced since the last flush.
func (c *coordinator) flush() []sendTask {
	tasks := c.tasks
	c.tasks = nil
	return tasks
}
