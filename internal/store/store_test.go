package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store/storetest"
)

func TestVoterCreateRejectsDuplicateMatric(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	storetest.SeedVoter(t, s, "U2020/001", false)

	err := s.Voters().Create(ctx, &domain.Voter{Matric: "U2020/001", Name: "Other", Email: "o@example.edu"})
	require.ErrorIs(t, err, store.ErrDuplicate)

	_, err = s.Voters().GetByMatric(ctx, "U2020/999")
	require.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestMarkVotedIsCompareAndSet(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	v := storetest.SeedVoter(t, s, "U2020/002", true)

	ok, err := s.Voters().MarkVoted(ctx, v.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Voters().MarkVoted(ctx, v.ID)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.Voters().ResetVoted(ctx, v.ID)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.Voters().GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.False(t, got.Voted)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	v := storetest.SeedVoter(t, s, "U2020/003", true)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx *store.Store) error {
		ok, err := tx.Voters().MarkVoted(ctx, v.ID)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, store.ErrCommitFailed)

	got, err := s.Voters().GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.False(t, got.Voted)
}

func TestCredentialEnrollAndCounter(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	v := storetest.SeedVoter(t, s, "U2020/004", false)
	other := storetest.SeedVoter(t, s, "U2020/005", false)

	cred := &domain.BiometricCredential{VoterID: v.ID, CredentialID: []byte("cred-1"), PublicKey: []byte("pk")}
	require.NoError(t, s.Credentials().Enroll(ctx, cred))

	err := s.Credentials().Enroll(ctx, &domain.BiometricCredential{VoterID: v.ID, CredentialID: []byte("cred-2"), PublicKey: []byte("pk")})
	require.ErrorIs(t, err, store.ErrDuplicate, "second credential for the same voter")

	err = s.Credentials().Enroll(ctx, &domain.BiometricCredential{VoterID: other.ID, CredentialID: []byte("cred-1"), PublicKey: []byte("pk")})
	require.ErrorIs(t, err, store.ErrDuplicate, "credential id reused")

	ok, err := s.Credentials().AdvanceCounter(ctx, v.ID, []byte("cred-1"), 5)
	require.NoError(t, err)
	require.True(t, ok)

	for _, c := range []uint32{5, 4, 0} {
		ok, err = s.Credentials().AdvanceCounter(ctx, v.ID, []byte("cred-1"), c)
		require.NoError(t, err)
		require.False(t, ok, "counter %d must not be accepted after 5", c)
	}

	got, err := s.Credentials().GetByVoter(ctx, v.ID)
	require.NoError(t, err)
	require.Equal(t, uint32(5), got.Counter)
	require.NotNil(t, got.LastUsedAt)
}

func TestOTPIssueSupersedesAndConsumesOnce(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	v := storetest.SeedVoter(t, s, "U2020/006", false)
	now := time.Now().UTC()

	first := &domain.OneTimeChallenge{VoterID: v.ID, CodeHash: []byte("h1"), ExpiresAt: now.Add(10 * time.Minute)}
	require.NoError(t, s.OTPs().Issue(ctx, first))
	second := &domain.OneTimeChallenge{VoterID: v.ID, CodeHash: []byte("h2"), ExpiresAt: now.Add(10 * time.Minute)}
	require.NoError(t, s.OTPs().Issue(ctx, second))

	ok, err := s.OTPs().Consume(ctx, v.ID, []byte("h1"), now)
	require.NoError(t, err)
	require.False(t, ok, "superseded code")

	ok, err = s.OTPs().Consume(ctx, v.ID, []byte("h2"), now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.OTPs().Consume(ctx, v.ID, []byte("h2"), now)
	require.NoError(t, err)
	require.False(t, ok, "already consumed")
}

func TestOTPConsumeRejectsExpired(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	v := storetest.SeedVoter(t, s, "U2020/007", false)
	now := time.Now().UTC()

	require.NoError(t, s.OTPs().Issue(ctx, &domain.OneTimeChallenge{VoterID: v.ID, CodeHash: []byte("h"), ExpiresAt: now.Add(time.Minute)}))

	ok, err := s.OTPs().Consume(ctx, v.ID, []byte("h"), now.Add(2*time.Minute))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBiometricChallengeSingleUse(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	v := storetest.SeedVoter(t, s, "U2020/008", true)
	other := storetest.SeedVoter(t, s, "U2020/009", true)
	now := time.Now().UTC()

	c := &domain.BiometricChallenge{VoterID: v.ID, Challenge: []byte("0123456789abcdef"), ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, s.BiometricChallenges().Create(ctx, c))

	_, err := s.BiometricChallenges().Consume(ctx, c.ID, other.ID, now)
	require.ErrorIs(t, err, store.ErrRecordNotFound, "bound to another voter")

	got, err := s.BiometricChallenges().Consume(ctx, c.ID, v.ID, now)
	require.NoError(t, err)
	require.Equal(t, c.Challenge, got.Challenge)

	_, err = s.BiometricChallenges().Consume(ctx, c.ID, v.ID, now)
	require.ErrorIs(t, err, store.ErrRecordNotFound)

	expired := &domain.BiometricChallenge{VoterID: v.ID, Challenge: []byte("x"), ExpiresAt: now.Add(-time.Second)}
	require.NoError(t, s.BiometricChallenges().Create(ctx, expired))
	_, err = s.BiometricChallenges().Consume(ctx, expired.ID, v.ID, now)
	require.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestSessionConsumeOnce(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	v := storetest.SeedVoter(t, s, "U2020/010", true)
	now := time.Now().UTC()

	sess := &domain.Session{VoterID: v.ID, Method: domain.AuthMethodOTP, CreatedAt: now, ExpiresAt: now.Add(30 * time.Minute)}
	require.NoError(t, s.Sessions().Create(ctx, sess))

	ok, err := s.Sessions().Consume(ctx, sess.ID, now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Sessions().Consume(ctx, sess.ID, now)
	require.NoError(t, err)
	require.False(t, ok)

	revoked := &domain.Session{VoterID: v.ID, Method: domain.AuthMethodOTP, CreatedAt: now, ExpiresAt: now.Add(30 * time.Minute)}
	require.NoError(t, s.Sessions().Create(ctx, revoked))
	n, err := s.Sessions().RevokeAllForVoter(ctx, v.ID, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := s.Sessions().Get(ctx, revoked.ID)
	require.NoError(t, err)
	require.False(t, got.Active(now))
}

func TestCatalogSnapshotAndTally(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	e := storetest.SeedElection(t, s)

	cat, err := s.Catalog().Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, cat.Positions(), 2)
	require.Len(t, cat.Candidates(), 5)

	ok, err := s.Ballots().IncrementTally(ctx, e.PresidentA.ID, "Senate")
	require.NoError(t, err)
	require.False(t, ok, "candidate does not run for Senate")

	token := "tok-" + uuid.NewString()
	require.NoError(t, s.Ballots().InsertVotes(ctx, []domain.Vote{
		{IssuanceToken: token, Position: "President", CandidateID: e.PresidentA.ID, CreatedAt: time.Now().UTC()},
	}))
	mismatches, err := s.Ballots().TallyMismatches(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	require.Equal(t, e.PresidentA.ID, mismatches[0].CandidateID)
	require.Equal(t, int64(0), mismatches[0].Recorded)
	require.Equal(t, int64(1), mismatches[0].Counted)

	ok, err = s.Ballots().IncrementTally(ctx, e.PresidentA.ID, "President")
	require.NoError(t, err)
	require.True(t, ok)
	mismatches, err = s.Ballots().TallyMismatches(ctx)
	require.NoError(t, err)
	require.Empty(t, mismatches)

	err = s.Ballots().InsertVotes(ctx, []domain.Vote{
		{IssuanceToken: token, Position: "President", CandidateID: e.PresidentA.ID, CreatedAt: time.Now().UTC()},
	})
	require.ErrorIs(t, err, store.ErrDuplicate)
}

func TestAuditAppendAndList(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	v := storetest.SeedVoter(t, s, "U2020/011", true)

	require.NoError(t, s.Audit().Append(ctx, &v.ID, domain.AuditReconciliationRequired, "10.0.0.1", "test", map[string]any{"stage": "commit"}))
	require.NoError(t, s.Audit().Append(ctx, nil, domain.AuditOTPIssued, "", "", nil))

	rows, err := s.Audit().ListByAction(ctx, domain.AuditReconciliationRequired, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, v.ID, *rows[0].VoterID)
	require.JSONEq(t, `{"stage":"commit"}`, string(rows[0].Metadata))
}
