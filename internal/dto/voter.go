package dto

type LookupVoterRequest struct {
	Matric string `json:"matric"`
}

type VoterSummary struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Verified          bool   `json:"verified"`
	BiometricEnrolled bool   `json:"biometricEnrolled"`
}

// LookupVoterResponse carries a nil Voter (JSON null) for unknown matric numbers.
type LookupVoterResponse struct {
	Voter *VoterSummary `json:"voter"`
}

type RegisterVoterRequest struct {
	Matric string `json:"matric"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type RegisterVoterResponse struct {
	VoterID string `json:"voterId"`
}
