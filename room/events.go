package room

// Event is one outbound frame.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	EventSnapshot        = "room:snapshot"
	EventMembers         = "room:members"
	EventStage           = "room:stage"
	EventContributions   = "room:contributions"
	EventReset           = "room:reset"
	EventContributionAck = "contribution:ack"
	EventVotingStarted   = "vote:started"
	EventVotingProgress  = "vote:progress"
	EventVotingCompleted = "vote:completed"
	EventError           = "error"
)

// legacyNames maps every canonical event to the name older clients listen on.
var legacyNames = map[string]string{
	EventSnapshot:        "room-state",
	EventMembers:         "participants-updated",
	EventStage:           "stage-changed",
	EventContributions:   "contributions-updated",
	EventReset:           "session-reset",
	EventContributionAck: "contribution-submitted",
	EventVotingStarted:   "voting-started",
	EventVotingProgress:  "vote-update",
	EventVotingCompleted: "voting-complete",
	EventError:           "error-message",
}

type snapshotPayload struct {
	RoomID        string         `json:"roomId"`
	You           Member         `json:"you"`
	Members       []Member       `json:"members"`
	Stage         Stage          `json:"stage"`
	Contributions []Contribution `json:"contributions"`
	ActiveRounds  []roundPayload `json:"activeRounds"`
}

type membersPayload struct {
	RoomID  string   `json:"roomId"`
	Members []Member `json:"members"`
}

type stagePayload struct {
	RoomID    string `json:"roomId"`
	Stage     Stage  `json:"stage"`
	ChangedBy string `json:"changedBy"`
}

type contributionsPayload struct {
	RoomID        string         `json:"roomId"`
	Kind          Kind           `json:"kind,omitempty"`
	Contributions []Contribution `json:"contributions"`
}

type resetPayload struct {
	RoomID             string `json:"roomId"`
	ClearContributions bool   `json:"clearContributions"`
}

type ackPayload struct {
	RoomID       string       `json:"roomId"`
	Contribution Contribution `json:"contribution"`
}

type roundPayload struct {
	RoomID        string      `json:"roomId"`
	SessionToken  string      `json:"sessionToken"`
	Kind          Kind        `json:"kind"`
	MaxSelections int         `json:"maxSelections"`
	StartedBy     string      `json:"startedBy"`
	StartedAt     int64       `json:"startedAt"`
	Candidates    []Candidate `json:"candidates"`
	Status        RoundStatus `json:"status"`
}

type progressPayload struct {
	RoomID         string         `json:"roomId"`
	SessionToken   string         `json:"sessionToken"`
	Kind           Kind           `json:"kind"`
	Counts         map[string]int `json:"counts"`
	UsersCompleted int            `json:"usersCompleted"`
	TotalMembers   int            `json:"totalMembers"`
}

type completedPayload struct {
	RoomID       string            `json:"roomId"`
	SessionToken string            `json:"sessionToken"`
	Kind         Kind              `json:"kind"`
	Winner       *RankedCandidate  `json:"winner"`
	Winners      []RankedCandidate `json:"winners"`
	Results      []RankedCandidate `json:"results"`
	IsTie        *bool             `json:"isTie,omitempty"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
