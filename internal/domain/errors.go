package domain

import "errors"

var (
	ErrNotRegistered         = errors.New("voter not registered")
	ErrNotVerified           = errors.New("voter not verified")
	ErrChallengeInvalid      = errors.New("challenge expired or invalid")
	ErrSignatureVerification = errors.New("signature verification failed")
	ErrRateLimited           = errors.New("rate limited")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrAlreadyVoted          = errors.New("already voted")
	ErrInvalidBallot         = errors.New("invalid ballot")
	ErrStorage               = errors.New("storage error")

	ErrConflict       = errors.New("conflict")
	ErrInvalidRequest = errors.New("invalid request")
)

// Kind is the closed set of failure classes surfaced to clients.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotRegistered
	KindNotVerified
	KindChallengeExpiredOrInvalid
	KindSignatureVerificationFailed
	KindRateLimited
	KindUnauthorized
	KindAlreadyVoted
	KindInvalidBallot
	KindStorageError
	KindConflict
	KindInvalidRequest
)

var kindNames = map[Kind]string{
	KindUnknown:                     "Unknown",
	KindNotRegistered:               "NotRegistered",
	KindNotVerified:                 "NotVerified",
	KindChallengeExpiredOrInvalid:   "ChallengeExpiredOrInvalid",
	KindSignatureVerificationFailed: "SignatureVerificationFailed",
	KindRateLimited:                 "RateLimited",
	KindUnauthorized:                "Unauthorized",
	KindAlreadyVoted:                "AlreadyVoted",
	KindInvalidBallot:               "InvalidBallot",
	KindStorageError:                "StorageError",
	KindConflict:                    "Conflict",
	KindInvalidRequest:              "InvalidRequest",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

var kindOrder = []struct {
	err  error
	kind Kind
}{
	{ErrAlreadyVoted, KindAlreadyVoted},
	{ErrInvalidBallot, KindInvalidBallot},
	{ErrUnauthorized, KindUnauthorized},
	{ErrRateLimited, KindRateLimited},
	{ErrSignatureVerification, KindSignatureVerificationFailed},
	{ErrChallengeInvalid, KindChallengeExpiredOrInvalid},
	{ErrNotVerified, KindNotVerified},
	{ErrNotRegistered, KindNotRegistered},
	{ErrConflict, KindConflict},
	{ErrInvalidRequest, KindInvalidRequest},
	{ErrStorage, KindStorageError},
}

// KindOf classifies err. Unclassified errors are treated as storage faults.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, e := range kindOrder {
		if errors.Is(err, e.err) {
			return e.kind
		}
	}
	return KindStorageError
}
