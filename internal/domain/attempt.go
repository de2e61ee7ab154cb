package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid authentication transition")

type Stage int

const (
	StageIdentityEntered Stage = iota
	StageBiometricOffered
	StageOTPOffered
	StageAuthenticated
	StageFailed
)

var stageNames = [...]string{
	StageIdentityEntered:  "identity_entered",
	StageBiometricOffered: "biometric_offered",
	StageOTPOffered:       "otp_offered",
	StageAuthenticated:    "authenticated",
	StageFailed:           "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Attempt is one pass through the authentication ceremony. Values are never
// mutated; each transition returns the next Attempt.
type Attempt struct {
	VoterID VoterID
	Stage   Stage
	Method  AuthMethod
}

func NewAttempt(voterID VoterID) Attempt {
	return Attempt{VoterID: voterID, Stage: StageIdentityEntered}
}

func (a Attempt) OfferBiometric() (Attempt, error) {
	if a.Stage != StageIdentityEntered {
		return a, a.illegal(StageBiometricOffered)
	}
	return Attempt{VoterID: a.VoterID, Stage: StageBiometricOffered, Method: AuthMethodBiometric}, nil
}

// OfferOTP is allowed straight after identification or to resend a code.
// Falling back from biometrics is decided before a signature is checked,
// so it is not reachable from BiometricOffered.
func (a Attempt) OfferOTP() (Attempt, error) {
	if a.Stage != StageIdentityEntered && a.Stage != StageOTPOffered {
		return a, a.illegal(StageOTPOffered)
	}
	return Attempt{VoterID: a.VoterID, Stage: StageOTPOffered, Method: AuthMethodOTP}, nil
}

func (a Attempt) Authenticate() (Attempt, error) {
	if a.Stage != StageBiometricOffered && a.Stage != StageOTPOffered {
		return a, a.illegal(StageAuthenticated)
	}
	return Attempt{VoterID: a.VoterID, Stage: StageAuthenticated, Method: a.Method}, nil
}

func (a Attempt) Fail() (Attempt, error) {
	if a.Stage == StageAuthenticated || a.Stage == StageFailed {
		return a, a.illegal(StageFailed)
	}
	return Attempt{VoterID: a.VoterID, Stage: StageFailed, Method: a.Method}, nil
}

func (a Attempt) illegal(to Stage) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Stage, to)
}
