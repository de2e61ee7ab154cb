package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAttemptTransitions(t *testing.T) {
	start := NewAttempt(uuid.New())

	bio, err := start.OfferBiometric()
	require.NoError(t, err)
	require.Equal(t, StageIdentityEntered, start.Stage, "original value is untouched")
	require.Equal(t, AuthMethodBiometric, bio.Method)

	done, err := bio.Authenticate()
	require.NoError(t, err)
	require.Equal(t, StageAuthenticated, done.Stage)
	require.Equal(t, AuthMethodBiometric, done.Method)

	otp, err := start.OfferOTP()
	require.NoError(t, err)
	otp, err = otp.OfferOTP()
	require.NoError(t, err, "resend")
	failed, err := otp.Fail()
	require.NoError(t, err)
	require.Equal(t, StageFailed, failed.Stage)
}

func TestAttemptRejectsIllegalTransitions(t *testing.T) {
	start := NewAttempt(uuid.New())
	bio, _ := start.OfferBiometric()
	failed, _ := bio.Fail()
	done, _ := bio.Authenticate()

	cases := map[string]func() (Attempt, error){
		"authenticate without offer": start.Authenticate,
		"fallback after biometric":   bio.OfferOTP,
		"second biometric offer":     bio.OfferBiometric,
		"authenticate after failure": failed.Authenticate,
		"fail after success":         done.Fail,
		"fail twice":                 failed.Fail,
	}
	for name, step := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := step()
			require.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}
