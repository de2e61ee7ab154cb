package dto

import "time"

type Position struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	VoteType      string `json:"voteType"`
	MaxSelections int    `json:"maxSelections"`
}

type Candidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// CatalogResponse never includes running tallies.
type CatalogResponse struct {
	Positions  []Position  `json:"positions"`
	Candidates []Candidate `json:"candidates"`
}

type SubmitBallotRequest struct {
	// Session is optional; the Authorization header is used when empty.
	Session    string              `json:"session,omitempty"`
	Selections map[string][]string `json:"selections"`
}

type Receipt struct {
	IssuanceToken string    `json:"issuanceToken"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

type SubmitBallotResponse struct {
	Receipt Receipt `json:"receipt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
