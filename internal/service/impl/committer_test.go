package impl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/ballot"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/events"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/metrics"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
)

func (e *testEnv) fullBallot() map[string][]string {
	return map[string][]string{
		"President": {e.election.PresidentA.ID.String()},
		"Senate":    {e.election.SenateA.ID.String(), e.election.SenateC.ID.String()},
	}
}

func (e *testEnv) voteCount(t *testing.T, c domain.Candidate) int64 {
	t.Helper()
	got, err := e.store.Catalog().GetCandidate(context.Background(), c.ID)
	require.NoError(t, err)
	return got.VoteCount
}

func (e *testEnv) issuanceRows(t *testing.T, voterID domain.VoterID) int64 {
	t.Helper()
	n, err := e.store.Ballots().CountIssuances(context.Background(), voterID)
	require.NoError(t, err)
	return n
}

func TestCommitRecordsBallot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.voter(t, "U2021/400", true)

	res, err := env.committer.Commit(ctx, dto.SubmitBallotRequest{
		Session:    env.session(t, v),
		Selections: env.fullBallot(),
	}, "", "")
	require.NoError(t, err)
	require.Len(t, res.Receipt.IssuanceToken, 43)
	require.Equal(t, env.clock.Now(), res.Receipt.SubmittedAt)

	require.True(t, env.reload(t, v.ID).Voted)
	require.EqualValues(t, 1, env.issuanceRows(t, v.ID))

	n, err := env.store.Ballots().CountVotes(ctx, res.Receipt.IssuanceToken)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	require.EqualValues(t, 1, env.voteCount(t, env.election.PresidentA))
	require.EqualValues(t, 0, env.voteCount(t, env.election.PresidentB))
	require.EqualValues(t, 1, env.voteCount(t, env.election.SenateA))
	require.EqualValues(t, 0, env.voteCount(t, env.election.SenateB))
	require.EqualValues(t, 1, env.voteCount(t, env.election.SenateC))

	mismatches, err := env.store.Ballots().TallyMismatches(ctx)
	require.NoError(t, err)
	require.Empty(t, mismatches)

	committed := env.events.ofType(events.TypeBallotCommitted)
	require.Len(t, committed, 1)
	require.Equal(t, res.Receipt.IssuanceToken, committed[0].Key())
	raw, err := json.Marshal(committed[0])
	require.NoError(t, err)
	require.NotContains(t, string(raw), v.ID.String())
}

func TestCommitPartialBallot(t *testing.T) {
	env := newTestEnv(t)
	v := env.voter(t, "U2021/401", true)

	_, err := env.committer.Commit(context.Background(), dto.SubmitBallotRequest{
		Session: env.session(t, v),
		Selections: map[string][]string{
			"President": {env.election.PresidentB.ID.String()},
			"Senate":    {},
		},
	}, "", "")
	require.NoError(t, err)
	require.EqualValues(t, 1, env.voteCount(t, env.election.PresidentB))
}

func TestCommitSecondBallotRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.voter(t, "U2021/402", true)

	_, err := env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: env.session(t, v), Selections: env.fullBallot()}, "", "")
	require.NoError(t, err)

	_, err = env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: env.session(t, v), Selections: env.fullBallot()}, "", "")
	require.ErrorIs(t, err, domain.ErrAlreadyVoted)
	require.EqualValues(t, 1, env.voteCount(t, env.election.PresidentA))
}

func TestCommitInvalidBallotKeepsEligibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.voter(t, "U2021/403", true)
	token := env.session(t, v)
	el := env.election

	cases := []struct {
		name   string
		sel    map[string][]string
		reason ballot.Reason
	}{
		{"empty", map[string][]string{}, ballot.ReasonEmptyBallot},
		{"unknown position", map[string][]string{"Treasurer": {el.PresidentA.ID.String()}}, ballot.ReasonUnknownPosition},
		{"candidate of another position", map[string][]string{"President": {el.SenateA.ID.String()}}, ballot.ReasonCandidateNotInPosition},
		{"unknown candidate", map[string][]string{"President": {"00000000-0000-0000-0000-000000000000"}}, ballot.ReasonCandidateNotInPosition},
		{"duplicate", map[string][]string{"Senate": {el.SenateA.ID.String(), el.SenateA.ID.String()}}, ballot.ReasonDuplicateSelection},
		{"two presidents", map[string][]string{"President": {el.PresidentA.ID.String(), el.PresidentB.ID.String()}}, ballot.ReasonTooManySelections},
		{"three senators", map[string][]string{"Senate": {el.SenateA.ID.String(), el.SenateB.ID.String(), el.SenateC.ID.String()}}, ballot.ReasonTooManySelections},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: token, Selections: tc.sel}, "", "")
			require.ErrorIs(t, err, domain.ErrInvalidBallot)
			var be *ballot.Error
			require.True(t, errors.As(err, &be))
			require.Equal(t, tc.reason, be.Reason)
		})
	}

	require.False(t, env.reload(t, v.ID).Voted)
	require.Zero(t, env.issuanceRows(t, v.ID))

	_, err := env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: token, Selections: env.fullBallot()}, "", "")
	require.NoError(t, err, "the same session still works after rejected ballots")
}

func TestCommitConsumesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.voter(t, "U2021/404", true)
	token := env.session(t, v)

	_, err := env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: token, Selections: env.fullBallot()}, "", "")
	require.NoError(t, err)

	_, err = env.guard.Authenticate(ctx, token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, env.registry.ResetVoted(ctx, v.ID, "returning-officer", "test"))
	_, err = env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: token, Selections: env.fullBallot()}, "", "")
	require.ErrorIs(t, err, domain.ErrUnauthorized, "a consumed session stays consumed")
}

func TestCommitUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.voter(t, "U2021/405", true)

	_, err := env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: "garbage", Selections: env.fullBallot()}, "", "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	token := env.session(t, v)
	env.clock.Advance(31 * time.Minute)
	_, err = env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: token, Selections: env.fullBallot()}, "", "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.False(t, env.reload(t, v.ID).Voted)
}

func TestCommitAtMostOnceUnderConcurrency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.voter(t, "U2021/406", true)

	const attempts = 8
	tokens := make([]string, attempts)
	for i := range tokens {
		tokens[i] = env.session(t, v)
	}

	var (
		mu      sync.Mutex
		success int
		errs    []error
	)
	var g errgroup.Group
	for _, token := range tokens {
		token := token
		g.Go(func() error {
			_, err := env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: token, Selections: env.fullBallot()}, "", "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else {
				errs = append(errs, err)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, 1, success)
	for _, err := range errs {
		require.ErrorIs(t, err, domain.ErrAlreadyVoted)
	}
	require.EqualValues(t, 1, env.issuanceRows(t, v.ID))
	require.EqualValues(t, 1, env.voteCount(t, env.election.PresidentA))

	mismatches, err := env.store.Ballots().TallyMismatches(ctx)
	require.NoError(t, err)
	require.Empty(t, mismatches)
}

// lostCommit runs the transaction for real and then reports the COMMIT as
// failed, the way a dropped connection does.
type lostCommit struct {
	gormStoreAdapter
}

func (l lostCommit) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if err := l.gormStoreAdapter.WithTx(ctx, fn); err != nil {
		return err
	}
	return fmt.Errorf("%w: %w", store.ErrCommitFailed, io.ErrUnexpectedEOF)
}

func TestCommitOutcomeUnknownRequiresReconciliation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.voter(t, "U2021/407", true)
	env.committer.Store = lostCommit{gormStoreAdapter{store: env.store}}
	before := testutil.ToFloat64(metrics.BallotReconciliationRequired)

	_, err := env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: env.session(t, v), Selections: env.fullBallot()}, "", "")
	require.ErrorIs(t, err, domain.ErrStorage)

	rows, err := env.store.Audit().ListByAction(ctx, domain.AuditReconciliationRequired, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, v.ID, *rows[0].VoterID)

	require.Len(t, env.events.ofType(events.TypeReconciliationRequired), 1)
	require.Empty(t, env.events.ofType(events.TypeBallotCommitted))
	require.Equal(t, before+1, testutil.ToFloat64(metrics.BallotReconciliationRequired))
}

type failingTx struct {
	storeTx
}

func (f failingTx) Ballots() ballotStore { return failingBallots{f.storeTx.Ballots()} }

type failingBallots struct {
	ballotStore
}

func (failingBallots) InsertVotes(context.Context, []domain.Vote) error {
	return errors.New("disk full")
}

type failMidTx struct {
	gormStoreAdapter
}

func (f failMidTx) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	return f.gormStoreAdapter.WithTx(ctx, func(tx storeTx) error {
		return fn(failingTx{tx})
	})
}

func TestCommitFailureAfterCASRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.voter(t, "U2021/408", true)
	token := env.session(t, v)
	env.committer.Store = failMidTx{gormStoreAdapter{store: env.store}}

	_, err := env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: token, Selections: env.fullBallot()}, "", "")
	require.ErrorIs(t, err, domain.ErrStorage)

	require.False(t, env.reload(t, v.ID).Voted)
	require.Zero(t, env.issuanceRows(t, v.ID))
	rows, err := env.store.Audit().ListByAction(ctx, domain.AuditReconciliationRequired, 10)
	require.NoError(t, err)
	require.Empty(t, rows)

	env.committer.Store = gormStoreAdapter{store: env.store}
	_, err = env.committer.Commit(ctx, dto.SubmitBallotRequest{Session: token, Selections: env.fullBallot()}, "", "")
	require.NoError(t, err)
}

func TestVotesCarryNoVoterColumn(t *testing.T) {
	env := newTestEnv(t)
	m := env.store.DB.Migrator()

	require.False(t, m.HasColumn(&domain.Vote{}, "voter_id"))
	require.True(t, m.HasColumn(&domain.Vote{}, "issuance_token"))
	require.True(t, m.HasColumn(&domain.IssuanceLog{}, "voter_id"))
}
