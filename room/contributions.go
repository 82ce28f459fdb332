package room

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const maxHmwSlots = 3

// contributionStore is upsert-only; an item keeps its position when overwritten.
type contributionStore struct {
	items map[string]*Contribution
	order []string
}

func newContributionStore() *contributionStore {
	return &contributionStore{items: make(map[string]*Contribution)}
}

func (s *contributionStore) upsert(item Contribution) Contribution {
	existing, ok := s.items[item.ID]
	if !ok {
		stored := item
		s.items[item.ID] = &stored
		s.order = append(s.order, item.ID)
		return stored
	}
	existing.ConnID = item.ConnID
	existing.DisplayName = item.DisplayName
	existing.Content = item.Content
	existing.Timestamp = item.Timestamp
	return *existing
}

// list returns the items of kind in insertion order; an empty kind returns everything.
func (s *contributionStore) list(kind Kind) []Contribution {
	items := make([]Contribution, 0, len(s.order))
	for _, id := range s.order {
		item := s.items[id]
		if kind == "" || item.Kind == kind {
			items = append(items, *item)
		}
	}
	return items
}

// hmwSlot picks the slot for a user's HMW question: the requested one when valid,
// else the lowest free slot, else the last slot.
func (s *contributionStore) hmwSlot(userID string, requested int) int {
	if requested >= 1 && requested <= maxHmwSlots {
		return requested
	}
	for slot := 1; slot <= maxHmwSlots; slot++ {
		if _, taken := s.items[hmwID(userID, slot)]; !taken {
			return slot
		}
	}
	return maxHmwSlots
}

func povID(userID string) string {
	return userID + ":pov"
}

func hmwID(userID string, slot int) string {
	return fmt.Sprintf("%s:hmw:%d", userID, slot)
}

func (c *coordinator) submitContribution(conn Conn, req contributionRequest) (Contribution, error) {
	if req.RoomID == "" {
		return Contribution{}, fmt.Errorf("%w: roomId is required", ErrInvalidRequest)
	}
	if !req.Kind.Contributable() {
		return Contribution{}, fmt.Errorf("%w: unknown contribution kind %q", ErrInvalidRequest, req.Kind)
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return Contribution{}, fmt.Errorf("%w: content is required", ErrInvalidRequest)
	}
	m, r, err := c.memberOf(conn, req.RoomID)
	if err != nil {
		return Contribution{}, err
	}
	if r.contributions == nil {
		r.contributions = newContributionStore()
	}

	var id string
	switch req.Kind {
	case KindPovStatement:
		id = povID(m.UserID)
	case KindHmwQuestion:
		id = hmwID(m.UserID, r.contributions.hmwSlot(m.UserID, req.Slot))
	default:
		id = c.newID()
	}

	stored := r.contributions.upsert(Contribution{
		ID:          id,
		ConnID:      m.ConnID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Kind:        req.Kind,
		Content:     content,
		Timestamp:   c.now(),
	})

	if req.PersistToDurableStore {
		roomID, userID, name, kind := r.id, m.UserID, m.DisplayName, string(req.Kind)
		c.writer.Submit("submit-contribution", roomID, func(ctx context.Context, store SessionStore) error {
			durableID, err := store.SubmitContribution(ctx, roomID, userID, name, kind, content)
			if err == nil {
				log.Debug().Str("room_id", roomID).Str("contribution_id", id).Str("durable_id", durableID).Msg("contribution mirrored")
			}
			return err
		})
	}

	log.Debug().Str("room_id", r.id).Str("user_id", m.UserID).Str("kind", string(req.Kind)).Str("contribution_id", id).Msg("contribution stored")
	c.emit(conn, EventContributionAck, ackPayload{RoomID: r.id, Contribution: stored})
	c.broadcastContributions(r, req.Kind)
	return stored, nil
}

func (r *roomState) contributionList(kind Kind) []Contribution {
	if r.contributions == nil {
		return []Contribution{}
	}
	return r.contributions.list(kind)
}
