package domain

import (
	"encoding/json"
	"time"
)

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

type Participant struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	IsHost      bool   `json:"isHost"`
	IsActive    bool   `json:"isActive"`
}

// Session is the durable record a live room is attached to.
type Session struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Participants    []Participant   `json:"participants"`
	Status          string          `json:"status"`
	CurrentStage    string          `json:"currentStage"`
	FinalSelections FinalSelections `json:"finalSelections"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Participant returns the participant record for userID, if any.
func (s Session) Participant(userID string) (Participant, bool) {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// StateEntry is one value of the generic keyed session state store.
type StateEntry struct {
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// FinalSelections carries the committed winners of the voting rounds.
// Nil fields are left untouched.
type FinalSelections struct {
	PovContent      *string  `json:"povContent,omitempty"`
	HmwContents     []string `json:"hmwContents,omitempty"`
	QuestionContent *string  `json:"questionContent,omitempty"`
}
