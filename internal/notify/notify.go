// Package notify hands one-time passcodes to the delivery channel. Delivery
// itself (email, SMS) happens outside this service.
package notify

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const PurposeOTP = "otp"

type OTPMessage struct {
	VoterID   string    `json:"voterId"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	Purpose   string    `json:"purpose"`
}

type Notifier interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}

// LogNotifier is for local development. It records that a code was sent but
// never the code itself.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendOTP(ctx context.Context, msg OTPMessage) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "otp handed to log notifier",
		"voter_id", msg.VoterID,
		"email", MaskEmail(msg.Email),
		"expires_at", msg.ExpiresAt,
	)
	return nil
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
