package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "already voted", err: ErrAlreadyVoted, want: KindAlreadyVoted},
		{name: "wrapped invalid ballot", err: fmt.Errorf("commit: %w", ErrInvalidBallot), want: KindInvalidBallot},
		{name: "otp", err: fmt.Errorf("verify: %w", ErrChallengeInvalid), want: KindChallengeExpiredOrInvalid},
		{name: "counter replay", err: fmt.Errorf("counter: %w", ErrSignatureVerification), want: KindSignatureVerificationFailed},
		{name: "unclassified", err: errors.New("connection reset"), want: KindStorageError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindAlreadyVoted.String() != "AlreadyVoted" {
		t.Fatalf("unexpected name %q", KindAlreadyVoted.String())
	}
	if Kind(99).String() != "Unknown" {
		t.Fatalf("expected Unknown for out-of-range kind")
	}
}
