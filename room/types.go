package room

import "time"

type Stage string

const (
	StageSetup         Stage = "setup"
	StageContributions Stage = "contributions"
	StageSelection     Stage = "selection"
	StageEvaluation    Stage = "evaluation"
	StageCompleted     Stage = "completed"
)

func (s Stage) Valid() bool {
	switch s {
	case StageSetup, StageContributions, StageSelection, StageEvaluation, StageCompleted:
		return true
	}
	return false
}

type Kind string

const (
	KindInterviewQuestion Kind = "interview_question"
	KindPovStatement      Kind = "pov_statement"
	KindHmwQuestion       Kind = "hmw_question"
	KindScenarioSelection Kind = "scenario_selection"
)

// Contributable reports whether members can submit items of this kind.
func (k Kind) Contributable() bool {
	switch k {
	case KindInterviewQuestion, KindPovStatement, KindHmwQuestion:
		return true
	}
	return false
}

// Votable reports whether a voting round can run over this kind.
func (k Kind) Votable() bool {
	return k.Contributable() || k == KindScenarioSelection
}

type Member struct {
	ConnID      string `json:"connectionId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	IsHost      bool   `json:"isHost"`
	IsActive    bool   `json:"isActive"`
}

type Contribution struct {
	ID          string    `json:"id"`
	ConnID      string    `json:"connectionId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Kind        Kind      `json:"kind"`
	Content     string    `json:"content"`
	IsSelected  bool      `json:"isSelected"`
	Timestamp   time.Time `json:"timestamp"`
}

type Candidate struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type RoundStatus string

const (
	RoundActive    RoundStatus = "active"
	RoundCompleted RoundStatus = "completed"
	// RoundCancelled marks a round dropped by a reset or a room teardown.
	RoundCancelled RoundStatus = "cancelled"
)

type VotingRound struct {
	SessionToken  string
	Kind          Kind
	MaxSelections int
	StartedBy     string
	StartedAt     time.Time
	Candidates    []Candidate
	VotesByUser   map[string][]string
	Status        RoundStatus
}

type RankedCandidate struct {
	Candidate
	Votes int `json:"votes"`
}
