package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditOTPIssued              = "auth.otp_issued"
	AuditOTPFailed              = "auth.otp_failed"
	AuditBiometricEnrolled      = "auth.biometric_enrolled"
	AuditBiometricFailed        = "auth.biometric_failed"
	AuditAuthenticated          = "auth.authenticated"
	AuditReconciliationRequired = "ballot.reconciliation_required"
	AuditVotedOverride          = "admin.voted_reset"
)

type AuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" db:"id"`
	VoterID   *VoterID  `gorm:"type:uuid;index" db:"voter_id"`
	Action    string    `gorm:"type:text;not null;index" db:"action"`
	Metadata  []byte    `gorm:"type:jsonb" db:"metadata"`
	IP        string    `gorm:"type:text" db:"ip"`
	UserAgent string    `gorm:"type:text" db:"user_agent"`
	CreatedAt time.Time `gorm:"not null" db:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
