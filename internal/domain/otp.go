package domain

import (
	"time"

	"github.com/google/uuid"
)

// OneTimeChallenge is an emailed passcode. Only the keyed digest of the code
// is stored. A newer challenge supersedes older unconsumed ones.
type OneTimeChallenge struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" db:"id"`
	VoterID      VoterID    `gorm:"type:uuid;not null;index:idx_voter_otp_voter" db:"voter_id"`
	CodeHash     []byte     `gorm:"column:otp_code;type:bytea;not null" db:"otp_code"`
	ExpiresAt    time.Time  `gorm:"not null" db:"expires_at"`
	Consumed     bool       `gorm:"not null;default:false" db:"consumed"`
	SupersededAt *time.Time `db:"superseded_at"`
	CreatedAt    time.Time  `gorm:"not null" db:"created_at"`
}

func (OneTimeChallenge) TableName() string { return "voter_otp" }
