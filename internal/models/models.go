package models

// Result is the model's judgement about a piece of analyzed content.
type Result string

const (
	ResultFake   Result = "FAKE"
	ResultReal   Result = "REAL"
	ResultUnsure Result = "UNSURE"
)

// Classification is the traffic-light rating derived from a Verdict.
type Classification string

const (
	ClassificationRed    Classification = "RED"
	ClassificationGreen  Classification = "GREEN"
	ClassificationYellow Classification = "YELLOW"
)

// Verdict is the structured analysis result for one piece of content.
// It is produced once per analysis call and never mutated afterwards.
type Verdict struct {
	Result     Result   `json:"result"`
	Confidence int      `json:"confidence"`
	Reason     string   `json:"reason"`
	WhyCardEN  string   `json:"why_card_en"`
	WhyCardHI  string   `json:"why_card_hi"`
	RedFlags   []string `json:"red_flags"`
}

// Turn roles in a chat history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one side of a chat exchange.
type Turn struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

// UserRecord holds everything the bot remembers about a single user:
// a bounded rolling chat history and the text of the most recent
// red-flagged analysis, kept for the /complaint command.
type UserRecord struct {
	History       []Turn `json:"history"`
	LastComplaint string `json:"last_complaint,omitempty"`
}
