package room

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	PolicyKey          = "voting_policy"
	roundRecordVersion = 1
)

func roundKey(kind Kind) string {
	return "voting_round:" + string(kind)
}

// roundRecord is the stored shape of a VotingRound.
type roundRecord struct {
	Version       int                 `json:"version"`
	SessionToken  string              `json:"sessionToken"`
	Kind          Kind                `json:"kind"`
	MaxSelections int                 `json:"maxSelections"`
	StartedBy     string              `json:"startedBy"`
	StartedAt     int64               `json:"startedAt"`
	Candidates    []Candidate         `json:"candidates"`
	VotesByUser   map[string][]string `json:"votesByUser"`
	Status        RoundStatus         `json:"status"`
}

func encodeRound(v *VotingRound) (json.RawMessage, error) {
	votes := make(map[string][]string, len(v.VotesByUser))
	for user, selection := range v.VotesByUser {
		votes[user] = append([]string(nil), selection...)
	}
	return json.Marshal(roundRecord{
		Version:       roundRecordVersion,
		SessionToken:  v.SessionToken,
		Kind:          v.Kind,
		MaxSelections: v.MaxSelections,
		StartedBy:     v.StartedBy,
		StartedAt:     v.StartedAt.UnixMilli(),
		Candidates:    v.Candidates,
		VotesByUser:   votes,
		Status:        v.Status,
	})
}

// decodeRound rebuilds a round from its stored record. Anything that does not look like
// a record written by encodeRound is reported as ErrMalformedPersistedState.
func decodeRound(raw json.RawMessage) (*VotingRound, error) {
	var rec roundRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPersistedState, err)
	}
	switch {
	case rec.Version != roundRecordVersion:
		return nil, fmt.Errorf("%w: unsupported round version %d", ErrMalformedPersistedState, rec.Version)
	case rec.SessionToken == "" || !rec.Kind.Votable():
		return nil, fmt.Errorf("%w: round without token or kind", ErrMalformedPersistedState)
	case rec.MaxSelections < 1:
		return nil, fmt.Errorf("%w: maxSelections %d", ErrMalformedPersistedState, rec.MaxSelections)
	case rec.Status != RoundActive && rec.Status != RoundCompleted && rec.Status != RoundCancelled:
		return nil, fmt.Errorf("%w: status %q", ErrMalformedPersistedState, rec.Status)
	}
	votes := make(map[string][]string, len(rec.VotesByUser))
	for user, selection := range rec.VotesByUser {
		if len(selection) > rec.MaxSelections {
			return nil, fmt.Errorf("%w: %s holds %d selections", ErrMalformedPersistedState, user, len(selection))
		}
		votes[user] = selection
	}
	if rec.Candidates == nil {
		rec.Candidates = []Candidate{}
	}
	return &VotingRound{
		SessionToken:  rec.SessionToken,
		Kind:          rec.Kind,
		MaxSelections: rec.MaxSelections,
		StartedBy:     rec.StartedBy,
		StartedAt:     time.UnixMilli(rec.StartedAt),
		Candidates:    rec.Candidates,
		VotesByUser:   votes,
		Status:        rec.Status,
	}, nil
}

func decodePolicy(raw json.RawMessage) (*VotingPolicy, error) {
	var policy VotingPolicy
	if err := json.Unmarshal(raw, &policy); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPersistedState, err)
	}
	return &policy, nil
}

// loadPolicy returns the session voting policy, or nil when there is none or it cannot be read.
func loadPolicy(ctx context.Context, store SessionStore, roomID string) *VotingPolicy {
	entries, err := store.GetSessionState(ctx, roomID, PolicyKey)
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("voting policy lookup failed, using defaults")
		return nil
	}
	if len(entries) == 0 {
		return nil
	}
	policy, err := decodePolicy(entries[len(entries)-1].Value)
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("ignoring unreadable voting policy")
		return nil
	}
	return policy
}

// loadRound returns the stored round for kind. Missing or malformed state yields nil.
func loadRound(ctx context.Context, store SessionStore, roomID string, kind Kind) *VotingRound {
	entries, err := store.GetSessionState(ctx, roomID, roundKey(kind))
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Str("kind", string(kind)).Msg("voting round lookup failed")
		return nil
	}
	if len(entries) == 0 {
		return nil
	}
	round, err := decodeRound(entries[len(entries)-1].Value)
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Str("kind", string(kind)).Msg("stored voting round reset to defaults")
		return nil
	}
	return round
}

func (c *coordinator) persistRound(roomID string, v *VotingRound) {
	raw, err := encodeRound(v)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("encoding voting round")
		return
	}
	key := roundKey(v.Kind)
	c.writer.Submit("save-voting-round", roomID, func(ctx context.Context, store SessionStore) error {
		return store.SetSessionState(ctx, roomID, key, raw)
	})
}
