package domain

import (
	"time"

	"github.com/google/uuid"
)

// IssuanceLog ties a voter to the token minted for their ballot. It is an
// append-only audit record and is never joined against votes.
type IssuanceLog struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" db:"id"`
	VoterID       VoterID   `gorm:"type:uuid;not null;index" db:"voter_id"`
	IssuanceToken string    `gorm:"type:text;not null;uniqueIndex:ux_issuance_log_token" db:"issuance_token"`
	IssuedAt      time.Time `gorm:"not null" db:"issued_at"`
}

func (IssuanceLog) TableName() string { return "issuance_log" }

// Vote carries no voter column.
type Vote struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" db:"id"`
	IssuanceToken string      `gorm:"type:text;not null;uniqueIndex:ux_votes_token_candidate,priority:1" db:"issuance_token"`
	Position      string      `gorm:"type:text;not null;index" db:"position"`
	CandidateID   CandidateID `gorm:"type:uuid;not null;uniqueIndex:ux_votes_token_candidate,priority:2;index" db:"candidate_id"`
	CreatedAt     time.Time   `gorm:"not null" db:"created_at"`
}

func (Vote) TableName() string { return "votes" }
