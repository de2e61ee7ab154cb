package dto

import "time"

type IdentifyRequest struct {
	Matric string `json:"matric"`
}

type IdentifyResponse struct {
	VoterID  string   `json:"voterId"`
	Verified bool     `json:"verified"`
	Methods  []string `json:"methods"`
}

// Binary fields are base64 (standard or URL alphabet, padding optional).
type BiometricRegisterRequest struct {
	VoterID      string `json:"voterId"`
	CredentialID string `json:"credentialId"`
	PublicKey    string `json:"publicKey"`
	// Session is optional; the Authorization header is used when empty.
	Session string `json:"session,omitempty"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type BiometricChallengeRequest struct {
	VoterID string `json:"voterId"`
}

type BiometricChallengeResponse struct {
	ChallengeID  string `json:"challengeId"`
	Challenge    string `json:"challenge"`
	RPID         string `json:"rpId"`
	CredentialID string `json:"credentialId"`
	TimeoutMs    int64  `json:"timeoutMs"`
}

type BiometricVerifyRequest struct {
	VoterID           string `json:"voterId"`
	ChallengeID       string `json:"challengeId"`
	CredentialID      string `json:"credentialId"`
	ClientDataJSON    string `json:"clientDataJSON"`
	AuthenticatorData string `json:"authenticatorData"`
	Signature         string `json:"signature"`
}

type OTPSendRequest struct {
	VoterID string `json:"voterId"`
	Email   string `json:"email"`
}

type OTPVerifyRequest struct {
	VoterID string `json:"voterId"`
	OTPCode string `json:"otpCode"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SessionResponse struct {
	Success bool    `json:"success,omitempty"`
	Session Session `json:"session"`
}
