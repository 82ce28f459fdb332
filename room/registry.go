package room

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jakekang28/GenAIHCI-sub001/domain"
	"github.com/rs/zerolog/log"
)

// join registers conn in the room. session and lookupErr are the result of the
// durable participant lookup done before the request reached the coordinator.
func (c *coordinator) join(conn Conn, req joinRequest) (Member, error) {
	if req.RoomID == "" || req.UserID == "" {
		return Member{}, fmt.Errorf("%w: roomId and userId are required", ErrInvalidRequest)
	}

	if req.lookupErr != nil {
		if !errors.Is(req.lookupErr, domain.ErrSessionNotFound) {
			log.Error().Err(req.lookupErr).Str("room_id", req.RoomID).Msg("participant lookup failed")
		}
		return Member{}, fmt.Errorf("%w: session %s could not be verified", ErrNotAParticipant, req.RoomID)
	}

	participant, ok := req.session.Participant(req.UserID)
	if !ok || !participant.IsActive {
		return Member{}, fmt.Errorf("%w: %s is not an active participant of %s", ErrNotAParticipant, req.UserID, req.RoomID)
	}

	if prev, in := c.connRoom[conn.ID()]; in && prev != req.RoomID {
		c.leave(conn, "")
	}

	r, ok := c.rooms[req.RoomID]
	if !ok {
		r = newRoomState(req.RoomID)
		c.rooms[req.RoomID] = r
		log.Info().Str("room_id", r.id).Msg("room created")
	}

	displayName := req.UserName
	if displayName == "" {
		displayName = participant.DisplayName
	}

	// older connections of the same user are reconnect leftovers
	for _, m := range r.members {
		if m.UserID == req.UserID && m.ConnID != conn.ID() {
			m.IsActive = false
		}
	}

	m, rejoin := r.members[conn.ID()]
	if rejoin {
		m.DisplayName = displayName
		m.IsActive = true
		m.conn = conn
	} else {
		m = &member{
			Member: Member{
				ConnID:      conn.ID(),
				UserID:      req.UserID,
				DisplayName: displayName,
				IsHost:      participant.IsHost,
				IsActive:    true,
			},
			conn: conn,
		}
		r.members[conn.ID()] = m
		r.order = append(r.order, conn.ID())
	}
	c.connRoom[conn.ID()] = r.id

	log.Info().Str("room_id", r.id).Str("conn_id", conn.ID()).Str("user_id", req.UserID).
		Bool("rejoin", rejoin).Bool("host", m.IsHost).Msg("member joined")

	c.emit(conn, EventSnapshot, snapshotPayload{
		RoomID:        r.id,
		You:           m.Member,
		Members:       r.memberList(),
		Stage:         r.stage,
		Contributions: r.contributionList(""),
		ActiveRounds:  r.activeRounds(),
	})
	c.broadcastMembers(r)

	return m.Member, nil
}

// leave removes conn from its room. An empty roomID means whichever room it is in.
// Removing the last connection drops every piece of live state of the room.
func (c *coordinator) leave(conn Conn, roomID string) error {
	current, ok := c.connRoom[conn.ID()]
	if !ok || (roomID != "" && roomID != current) {
		return ErrNotAMember
	}
	delete(c.connRoom, conn.ID())

	r, ok := c.rooms[current]
	if !ok {
		return nil
	}
	m := r.members[conn.ID()]
	delete(r.members, conn.ID())
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == conn.ID() })

	log.Info().Str("room_id", r.id).Str("conn_id", conn.ID()).Str("user_id", m.UserID).Msg("member left")

	if len(r.members) == 0 {
		c.teardown(r)
		return nil
	}

	c.broadcastMembers(r)
	c.broadcastContributions(r, "")
	return nil
}

// uniqueMembers collapses the connections of one user into a single entry,
// preferring an active one. Quorum counting is based on it.
func (r *roomState) uniqueMembers() []Member {
	unique := make([]Member, 0, len(r.order))
	index := make(map[string]int, len(r.order))
	for _, connID := range r.order {
		m := r.members[connID]
		i, seen := index[m.UserID]
		if !seen {
			index[m.UserID] = len(unique)
			unique = append(unique, m.Member)
			continue
		}
		if !unique[i].IsActive && m.IsActive {
			unique[i] = m.Member
		}
	}
	return unique
}

func (r *roomState) isHost(userID string) bool {
	for _, m := range r.members {
		if m.UserID == userID && m.IsHost {
			return true
		}
	}
	return false
}

func (r *roomState) memberList() []Member {
	members := make([]Member, 0, len(r.order))
	for _, connID := range r.order {
		members = append(members, r.members[connID].Member)
	}
	return members
}
