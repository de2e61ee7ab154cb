package impl

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/ballot"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
)

type dataStore interface {
	storeTx
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
}

type storeTx interface {
	Voters() voterStore
	Credentials() credentialStore
	OTPs() otpStore
	BiometricChallenges() biometricChallengeStore
	Sessions() sessionStore
	Catalog() catalogStore
	Ballots() ballotStore
	Audit() auditStore
}

type voterStore interface {
	Create(ctx context.Context, v *domain.Voter) error
	GetByID(ctx context.Context, id domain.VoterID) (*domain.Voter, error)
	GetByMatric(ctx context.Context, matric string) (*domain.Voter, error)
	MarkVerified(ctx context.Context, id domain.VoterID) error
	MarkVoted(ctx context.Context, id domain.VoterID) (bool, error)
	ResetVoted(ctx context.Context, id domain.VoterID) (bool, error)
}

type credentialStore interface {
	Enroll(ctx context.Context, c *domain.BiometricCredential) error
	GetByVoter(ctx context.Context, voterID domain.VoterID) (*domain.BiometricCredential, error)
	AdvanceCounter(ctx context.Context, voterID domain.VoterID, credentialID []byte, counter uint32) (bool, error)
}

type otpStore interface {
	Issue(ctx context.Context, c *domain.OneTimeChallenge) error
	Consume(ctx context.Context, voterID domain.VoterID, codeHash []byte, now time.Time) (bool, error)
}

type biometricChallengeStore interface {
	Create(ctx context.Context, c *domain.BiometricChallenge) error
	Consume(ctx context.Context, id uuid.UUID, voterID domain.VoterID, now time.Time) (*domain.BiometricChallenge, error)
}

type sessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id domain.SessionID) (*domain.Session, error)
	Consume(ctx context.Context, id domain.SessionID, at time.Time) (bool, error)
	RevokeAllForVoter(ctx context.Context, voterID domain.VoterID, at time.Time) (int64, error)
}

type catalogStore interface {
	Snapshot(ctx context.Context) (*ballot.Catalog, error)
}

type ballotStore interface {
	AppendIssuance(ctx context.Context, l *domain.IssuanceLog) error
	InsertVotes(ctx context.Context, votes []domain.Vote) error
	IncrementTally(ctx context.Context, candidateID domain.CandidateID, position string) (bool, error)
}

type auditStore interface {
	Append(ctx context.Context, voterID *domain.VoterID, action, ip, ua string, meta map[string]any) error
}

// gormStoreAdapter exposes *store.Store through the narrow interfaces above,
// both at the top level and inside WithTx.
type gormStoreAdapter struct {
	store *store.Store
}

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormStoreAdapter{store: tx})
	})
}

func (g gormStoreAdapter) Voters() voterStore { return g.store.Voters() }

func (g gormStoreAdapter) Credentials() credentialStore { return g.store.Credentials() }

func (g gormStoreAdapter) OTPs() otpStore { return g.store.OTPs() }

func (g gormStoreAdapter) BiometricChallenges() biometricChallengeStore {
	return g.store.BiometricChallenges()
}

func (g gormStoreAdapter) Sessions() sessionStore { return g.store.Sessions() }

func (g gormStoreAdapter) Catalog() catalogStore { return g.store.Catalog() }

func (g gormStoreAdapter) Ballots() ballotStore { return g.store.Ballots() }

func (g gormStoreAdapter) Audit() auditStore { return g.store.Audit() }
