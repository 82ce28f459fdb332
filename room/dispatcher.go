package room

import "github.com/rs/zerolog/log"

// withLegacy expands one event into the canonical frame and its legacy-named twin.
func withLegacy(name string, payload any) []Event {
	events := []Event{{Type: name, Payload: payload}}
	if legacy, ok := legacyNames[name]; ok {
		events = append(events, Event{Type: legacy, Payload: payload})
	}
	return events
}

// emit queues an event for one connection.
func (c *coordinator) emit(to Conn, name string, payload any) {
	for _, ev := range withLegacy(name, payload) {
		c.tasks = append(c.tasks, sendTask{to: to, ev: ev})
	}
}

// broadcast reaches every registered connection of the room, stale duplicates included.
func (c *coordinator) broadcast(r *roomState, name string, payload any) {
	for _, connID := range r.order {
		c.emit(r.members[connID].conn, name, payload)
	}
}

func (c *coordinator) replyError(to Conn, err error) {
	code := errorCode(err)
	log.Debug().Str("conn_id", to.ID()).Str("code", code).Err(err).Msg("request rejected")
	c.emit(to, EventError, errorPayload{Code: code, Message: err.Error()})
}

func (c *coordinator) broadcastMembers(r *roomState) {
	c.broadcast(r, EventMembers, membersPayload{RoomID: r.id, Members: r.memberList()})
}

func (c *coordinator) broadcastContributions(r *roomState, kind Kind) {
	c.broadcast(r, EventContributions, contributionsPayload{
		RoomID:        r.id,
		Kind:          kind,
		Contributions: r.contributionList(kind),
	})
}
