package domain

import "time"

type AuthMethod string

const (
	AuthMethodOTP       AuthMethod = "otp"
	AuthMethodBiometric AuthMethod = "biometric"
)

// Session backs a signed session token. ConsumedAt is set by the ballot
// commit that used it.
type Session struct {
	ID         SessionID  `gorm:"type:uuid;primaryKey" db:"id"`
	VoterID    VoterID    `gorm:"type:uuid;not null;index" db:"voter_id"`
	Method     AuthMethod `gorm:"type:text;not null" db:"method"`
	ExpiresAt  time.Time  `gorm:"not null" db:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at"`
	RevokedAt  *time.Time `db:"revoked_at"`
	CreatedAt  time.Time  `gorm:"not null" db:"created_at"`
	IP         string     `gorm:"type:text" db:"ip"`
	UserAgent  string     `gorm:"type:text" db:"user_agent"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) Active(now time.Time) bool {
	return s.ConsumedAt == nil && s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
