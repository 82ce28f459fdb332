package room

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/jakekang28/GenAIHCI-sub001/domain"
	"github.com/rs/zerolog/log"
)

var scenarioCatalog = []Candidate{
	{ID: "scenario-1", Content: "Busy parent planning weekday family meals"},
	{ID: "scenario-2", Content: "First-year student managing a new budget"},
	{ID: "scenario-3", Content: "Retiree learning to video-call grandchildren"},
	{ID: "scenario-4", Content: "Night-shift nurse coordinating childcare"},
}

var defaultMaxSelections = map[Kind]int{
	KindPovStatement:      1,
	KindInterviewQuestion: 1,
	KindHmwQuestion:       3,
	KindScenarioSelection: 1,
}

// VotingPolicy is the per-session override of the selection quota, stored under policyKey.
type VotingPolicy struct {
	MaxSelectionsByType map[Kind]int `json:"maxSelectionsByType"`
}

func resolveCandidates(r *roomState, kind Kind, allow []string) []Candidate {
	var candidates []Candidate
	if kind == KindScenarioSelection {
		candidates = slices.Clone(scenarioCatalog)
	} else {
		for _, item := range r.contributionList(kind) {
			candidates = append(candidates, Candidate{ID: item.ID, Content: item.Content})
		}
	}
	if len(allow) > 0 {
		candidates = slices.DeleteFunc(candidates, func(c Candidate) bool {
			return !slices.Contains(allow, c.ID)
		})
	}
	if candidates == nil {
		candidates = []Candidate{}
	}
	return candidates
}

// resolveMaxSelections picks the quota: explicit request, then session policy, then the
// built-in table, clamped to [1, candidateCount].
func resolveMaxSelections(kind Kind, requested int, policy *VotingPolicy, candidateCount int) int {
	n := requested
	if n <= 0 && policy != nil {
		n = policy.MaxSelectionsByType[kind]
	}
	if n <= 0 {
		n = defaultMaxSelections[kind]
	}
	n = min(n, candidateCount)
	return max(n, 1)
}

func (c *coordinator) newRound(r *roomState, kind Kind, requested int, allow []string, policy *VotingPolicy, startedBy string) *VotingRound {
	candidates := resolveCandidates(r, kind, allow)
	now := c.now()
	return &VotingRound{
		SessionToken:  fmt.Sprintf("%s-%s-%d", r.id, kind, now.UnixMilli()),
		Kind:          kind,
		MaxSelections: resolveMaxSelections(kind, requested, policy, len(candidates)),
		StartedBy:     startedBy,
		StartedAt:     now,
		Candidates:    candidates,
		VotesByUser:   make(map[string][]string),
		Status:        RoundActive,
	}
}

// startVoting opens a round for the kind. A round already running for the same kind
// is superseded: its token stops being accepted and its votes are discarded.
func (c *coordinator) startVoting(conn Conn, req startVotingRequest) (*VotingRound, error) {
	if req.RoomID == "" || !req.Kind.Votable() {
		return nil, fmt.Errorf("%w: roomId and a votable kind are required", ErrInvalidRequest)
	}
	m, r, err := c.memberOf(conn, req.RoomID)
	if err != nil {
		return nil, err
	}

	round := c.newRound(r, req.Kind, req.MaxSelections, req.LimitCandidateIDs, req.policy, m.UserID)
	if prev, ok := r.rounds[req.Kind]; ok && prev.Status == RoundActive {
		log.Info().Str("room_id", r.id).Str("kind", string(req.Kind)).Str("superseded", prev.SessionToken).Msg("active round superseded")
	}
	r.rounds[req.Kind] = round
	c.persistRound(r.id, round)

	log.Info().Str("room_id", r.id).Str("kind", string(round.Kind)).Str("token", round.SessionToken).
		Int("max_selections", round.MaxSelections).Int("candidates", len(round.Candidates)).Msg("voting started")
	c.broadcast(r, EventVotingStarted, round.payload(r.id))
	return round, nil
}

func (c *coordinator) submitVote(conn Conn, req voteRequest) error {
	if req.RoomID == "" || !req.Kind.Votable() || len(req.CandidateIDs) == 0 {
		return fmt.Errorf("%w: roomId, a votable kind and candidateIds are required", ErrInvalidRequest)
	}
	m, r, err := c.memberOf(conn, req.RoomID)
	if err != nil {
		return err
	}

	round, ok := r.rounds[req.Kind]
	if !ok {
		round = req.stored
		if round == nil || round.Status != RoundActive || r.retired[round.SessionToken] {
			round = c.newRound(r, req.Kind, 0, nil, req.policy, "")
		}
		r.rounds[req.Kind] = round
		log.Warn().Str("room_id", r.id).Str("kind", string(req.Kind)).Str("token", round.SessionToken).Msg("vote without live round, recovered")
	}
	if round.Status == RoundCompleted {
		return fmt.Errorf("%w: voting for %s is already completed", ErrInvalidRequest, req.Kind)
	}

	round.addVotes(m.UserID, req.CandidateIDs)
	c.persistRound(r.id, round)

	counts := round.counts()
	unique := r.uniqueMembers()
	completed := round.usersCompleted(unique)
	c.broadcast(r, EventVotingProgress, progressPayload{
		RoomID:         r.id,
		SessionToken:   round.SessionToken,
		Kind:           round.Kind,
		Counts:         counts,
		UsersCompleted: completed,
		TotalMembers:   len(unique),
	})

	if completed >= len(unique) {
		c.completeRound(r, round)
	}
	return nil
}

// addVotes merges ids into the user's selection. Earlier choices are kept; ids beyond the
// quota, repeated ids and ids outside the candidate set are dropped.
func (v *VotingRound) addVotes(userID string, ids []string) {
	selection := v.VotesByUser[userID]
	for _, id := range ids {
		if len(selection) >= v.MaxSelections {
			break
		}
		if slices.Contains(selection, id) || !v.hasCandidate(id) {
			continue
		}
		selection = append(selection, id)
	}
	v.VotesByUser[userID] = selection
}

func (v *VotingRound) hasCandidate(id string) bool {
	return slices.ContainsFunc(v.Candidates, func(c Candidate) bool { return c.ID == id })
}

func (v *VotingRound) counts() map[string]int {
	counts := make(map[string]int, len(v.Candidates))
	for _, c := range v.Candidates {
		counts[c.ID] = 0
	}
	for _, selection := range v.VotesByUser {
		for _, id := range selection {
			counts[id]++
		}
	}
	return counts
}

func (v *VotingRound) usersCompleted(unique []Member) int {
	completed := 0
	for _, m := range unique {
		if len(v.VotesByUser[m.UserID]) >= v.MaxSelections {
			completed++
		}
	}
	return completed
}

// ranked orders candidates by votes, descending. Equal counts keep candidate order.
func (v *VotingRound) ranked() []RankedCandidate {
	counts := v.counts()
	results := make([]RankedCandidate, 0, len(v.Candidates))
	for _, c := range v.Candidates {
		results = append(results, RankedCandidate{Candidate: c, Votes: counts[c.ID]})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Votes > results[j].Votes })
	return results
}

// cancelRounds drops every round of the room. Active ones are stored as cancelled
// so a later vote cannot bring them back from the durable record.
func (c *coordinator) cancelRounds(r *roomState) {
	for _, kind := range []Kind{KindInterviewQuestion, KindPovStatement, KindHmwQuestion, KindScenarioSelection} {
		round, ok := r.rounds[kind]
		if !ok || round.Status != RoundActive {
			continue
		}
		round.Status = RoundCancelled
		r.retired[round.SessionToken] = true
		c.persistRound(r.id, round)
		log.Info().Str("room_id", r.id).Str("kind", string(kind)).Str("token", round.SessionToken).Msg("voting round cancelled")
	}
	r.rounds = make(map[Kind]*VotingRound)
}

func (c *coordinator) completeRound(r *roomState, round *VotingRound) {
	round.Status = RoundCompleted
	results := round.ranked()
	winners := results[:min(round.MaxSelections, len(results))]

	payload := completedPayload{
		RoomID:       r.id,
		SessionToken: round.SessionToken,
		Kind:         round.Kind,
		Winners:      winners,
		Results:      results,
	}
	if len(winners) > 0 {
		payload.Winner = &winners[0]
	}
	if round.MaxSelections == 1 {
		tie := len(results) > 1 && results[0].Votes == results[1].Votes
		payload.IsTie = &tie
	}

	c.commitWinners(r.id, round.Kind, winners)
	c.persistRound(r.id, round)

	log.Info().Str("room_id", r.id).Str("kind", string(round.Kind)).Str("token", round.SessionToken).
		Int("winners", len(winners)).Msg("voting completed")
	c.broadcast(r, EventVotingCompleted, payload)
}

func (c *coordinator) commitWinners(roomID string, kind Kind, winners []RankedCandidate) {
	if len(winners) == 0 {
		return
	}
	var sel domain.FinalSelections
	switch kind {
	case KindHmwQuestion:
		for _, w := range winners {
			sel.HmwContents = append(sel.HmwContents, w.Content)
		}
	case KindPovStatement:
		sel.PovContent = &winners[0].Content
	case KindInterviewQuestion:
		sel.QuestionContent = &winners[0].Content
	default:
		return
	}
	c.writer.Submit("set-final-selections", roomID, func(ctx context.Context, store SessionStore) error {
		return store.SetFinalSelections(ctx, roomID, sel)
	})
}

func (v *VotingRound) payload(roomID string) roundPayload {
	return roundPayload{
		RoomID:        roomID,
		SessionToken:  v.SessionToken,
		Kind:          v.Kind,
		MaxSelections: v.MaxSelections,
		StartedBy:     v.StartedBy,
		StartedAt:     v.StartedAt.UnixMilli(),
		Candidates:    v.Candidates,
		Status:        v.Status,
	}
}

func (r *roomState) activeRounds() []roundPayload {
	rounds := []roundPayload{}
	for _, kind := range []Kind{KindInterviewQuestion, KindPovStatement, KindHmwQuestion, KindScenarioSelection} {
		if round, ok := r.rounds[kind]; ok && round.Status == RoundActive {
			rounds = append(rounds, round.payload(r.id))
		}
	}
	return rounds
}
