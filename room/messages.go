package room

import (
	"encoding/json"
	"fmt"

	"github.com/jakekang28/GenAIHCI-sub001/domain"
)

// Inbound message names.
const (
	MsgJoin               = "join"
	MsgLeave              = "leave"
	MsgChangeStage        = "change-stage"
	MsgSubmitContribution = "submit-contribution"
	MsgStartVoting        = "start-voting"
	MsgVote               = "vote"
	MsgReset              = "reset"
)

type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinRequest struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`

	session   domain.Session
	lookupErr error
}

type leaveRequest struct {
	RoomID string `json:"roomId"`
}

// disconnectRequest is raised by the transport when a connection goes away.
type disconnectRequest struct{}

type stageRequest struct {
	RoomID   string `json:"roomId"`
	NewStage Stage  `json:"newStage"`
}

type contributionRequest struct {
	RoomID                string `json:"roomId"`
	Kind                  Kind   `json:"kind"`
	Content               string `json:"content"`
	Slot                  int    `json:"slot"`
	PersistToDurableStore bool   `json:"persistToDurableStore"`
}

type startVotingRequest struct {
	RoomID            string   `json:"roomId"`
	Kind              Kind     `json:"kind"`
	MaxSelections     int      `json:"maxSelections"`
	LimitCandidateIDs []string `json:"limitCandidateIds"`

	policy *VotingPolicy
}

type voteRequest struct {
	RoomID       string   `json:"roomId"`
	Kind         Kind     `json:"kind"`
	CandidateIDs []string `json:"candidateIds"`

	stored *VotingRound
	policy *VotingPolicy
}

type resetRequest struct {
	RoomID             string `json:"roomId"`
	ClearContributions bool   `json:"clearContributions"`
}

// decodeMessage turns a raw client frame into one of the request types.
func decodeMessage(data []byte) (any, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: malformed frame", ErrInvalidRequest)
	}

	var req any
	switch frame.Type {
	case MsgJoin:
		req = &joinRequest{}
	case MsgLeave:
		req = &leaveRequest{}
	case MsgChangeStage:
		req = &stageRequest{}
	case MsgSubmitContribution:
		req = &contributionRequest{}
	case MsgStartVoting:
		req = &startVotingRequest{}
	case MsgVote:
		req = &voteRequest{}
	case MsgReset:
		req = &resetRequest{}
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", ErrInvalidRequest, frame.Type)
	}

	if len(frame.Payload) > 0 {
		if err := json.Unmarshal(frame.Payload, req); err != nil {
			return nil, fmt.Errorf("%w: malformed %s payload", ErrInvalidRequest, frame.Type)
		}
	}
	return req, nil
}
