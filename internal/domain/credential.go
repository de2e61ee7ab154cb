package domain

import (
	"time"

	"github.com/google/uuid"
)

// BiometricCredential is the public-key credential a voter enrolled from a
// platform authenticator. Counter is the last accepted signature counter.
type BiometricCredential struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" db:"id"`
	VoterID      VoterID    `gorm:"type:uuid;not null;uniqueIndex:ux_voter_biometric_voter" db:"voter_id"`
	CredentialID []byte     `gorm:"type:bytea;not null;uniqueIndex:ux_voter_biometric_credid" db:"credential_id"`
	PublicKey    []byte     `gorm:"type:bytea;not null" db:"public_key"`
	Counter      uint32     `gorm:"not null;default:0" db:"counter"`
	LastUsedAt   *time.Time `db:"last_used_at"`
	CreatedAt    time.Time  `gorm:"not null" db:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" db:"updated_at"`
}

func (BiometricCredential) TableName() string { return "voter_biometric" }

// BiometricChallenge is the random value an authenticator must sign during
// one assertion ceremony.
type BiometricChallenge struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" db:"id"`
	VoterID    VoterID    `gorm:"type:uuid;not null;index" db:"voter_id"`
	Challenge  []byte     `gorm:"type:bytea;not null" db:"challenge"`
	ExpiresAt  time.Time  `gorm:"not null" db:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at"`
	CreatedAt  time.Time  `gorm:"not null" db:"created_at"`
}

func (BiometricChallenge) TableName() string { return "biometric_challenges" }
