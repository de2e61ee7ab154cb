package impl

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/ballot"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/events"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/metrics"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/middleware"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/service"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
)

const issuanceTokenSize = 32

// BallotCommitterImpl records a ballot at most once per voter. The voter is
// linked to an issuance token in issuance_log; vote rows carry only the
// token.
type BallotCommitterImpl struct {
	Store   dataStore
	Guard   service.SessionGuard
	Events  events.Publisher
	Timeout time.Duration

	now func() time.Time
}

func NewBallotCommitter(st *store.Store, guard service.SessionGuard, pub events.Publisher, timeout time.Duration) *BallotCommitterImpl {
	return &BallotCommitterImpl{
		Store:   gormStoreAdapter{store: st},
		Guard:   guard,
		Events:  pub,
		Timeout: timeout,
		now:     time.Now,
	}
}

func (c *BallotCommitterImpl) Commit(ctx context.Context, r dto.SubmitBallotRequest, ip, ua string) (*dto.SubmitBallotResponse, error) {
	result := "success"
	defer func() {
		metrics.BallotsSubmittedTotal.WithLabelValues(result).Inc()
	}()

	sess, err := c.Guard.Authenticate(ctx, r.Session)
	if err != nil {
		result = "unauthorized"
		return nil, err
	}
	voter, err := c.Store.Voters().GetByID(ctx, sess.VoterID)
	if err != nil {
		result = "error"
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: session voter no longer registered", domain.ErrUnauthorized)
		}
		return nil, storageErr("load voter", err)
	}
	if voter.Voted {
		result = "already_voted"
		return nil, domain.ErrAlreadyVoted
	}

	selections := ballot.Selections(r.Selections)
	cat, err := c.Store.Catalog().Snapshot(ctx)
	if err != nil {
		result = "error"
		return nil, storageErr("load catalog", err)
	}
	if err := ballot.Validate(selections, cat); err != nil {
		result = "invalid"
		return nil, err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var (
		token       string
		submittedAt time.Time
		markedVoted bool
	)
	err = c.Store.WithTx(ctx, func(tx storeTx) error {
		ok, err := tx.Voters().MarkVoted(ctx, voter.ID)
		if err != nil {
			return storageErr("mark voted", err)
		}
		if !ok {
			return domain.ErrAlreadyVoted
		}
		markedVoted = true

		token, err = mintIssuanceToken()
		if err != nil {
			return fmt.Errorf("mint issuance token: %w", err)
		}
		submittedAt = c.now().UTC()
		if err := tx.Ballots().AppendIssuance(ctx, &domain.IssuanceLog{
			ID:            uuid.New(),
			VoterID:       voter.ID,
			IssuanceToken: token,
			IssuedAt:      submittedAt,
		}); err != nil {
			return storageErr("append issuance", err)
		}

		// The catalog may have changed since the fail-fast check; only what
		// this transaction reads counts.
		current, err := tx.Catalog().Snapshot(ctx)
		if err != nil {
			return storageErr("reload catalog", err)
		}
		picks, err := ballot.Resolve(selections, current)
		if err != nil {
			return err
		}

		votes := make([]domain.Vote, 0, len(picks))
		for _, p := range picks {
			votes = append(votes, domain.Vote{
				ID:            uuid.New(),
				IssuanceToken: token,
				Position:      p.Position,
				CandidateID:   p.CandidateID,
				CreatedAt:     submittedAt,
			})
		}
		if err := tx.Ballots().InsertVotes(ctx, votes); err != nil {
			return storageErr("insert votes", err)
		}
		for _, p := range picks {
			ok, err := tx.Ballots().IncrementTally(ctx, p.CandidateID, p.Position)
			if err != nil {
				return storageErr("increment tally", err)
			}
			if !ok {
				return fmt.Errorf("%w: candidate %s vanished from %s", domain.ErrStorage, p.CandidateID, p.Position)
			}
		}

		ok, err = tx.Sessions().Consume(ctx, sess.ID, submittedAt)
		if err != nil {
			return storageErr("consume session", err)
		}
		if !ok {
			return fmt.Errorf("%w: session already used", domain.ErrUnauthorized)
		}
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyVoted):
			result = "already_voted"
			return nil, err
		case errors.Is(err, domain.ErrInvalidBallot):
			result = "invalid"
			return nil, err
		case errors.Is(err, domain.ErrUnauthorized):
			result = "unauthorized"
			return nil, err
		}
		result = "error"
		if markedVoted {
			c.reportPostCASFailure(ctx, voter.ID, err, ip, ua)
		}
		if errors.Is(err, domain.ErrStorage) {
			return nil, err
		}
		return nil, storageErr("commit ballot", err)
	}

	slog.InfoContext(ctx, "ballot committed", append(middleware.LogAttrs(ctx), "selections", len(selections))...)
	if err := c.Events.Publish(ctx, events.BallotCommitted{IssuanceToken: token, At: submittedAt}); err != nil {
		slog.WarnContext(ctx, "publish ballot committed failed", "err", err)
	}

	return &dto.SubmitBallotResponse{Receipt: dto.Receipt{
		IssuanceToken: token,
		SubmittedAt:   submittedAt,
	}}, nil
}

// reportPostCASFailure handles a storage fault after the voted flag was set
// in the transaction. When the database refused the work, the rollback
// restored the flag. When COMMIT itself failed without a server verdict the
// voter may or may not have voted, and an operator has to decide.
func (c *BallotCommitterImpl) reportPostCASFailure(ctx context.Context, voterID domain.VoterID, err error, ip, ua string) {
	attrs := append(middleware.LogAttrs(ctx), "voter_id", voterID, "err", err)
	if !errors.Is(err, store.ErrCommitFailed) || store.Rejected(err) {
		slog.ErrorContext(ctx, "ballot transaction rolled back after voted flag was set",
			append(attrs, "reconciliation_required", false)...)
		return
	}

	slog.ErrorContext(ctx, "ballot commit outcome unknown", append(attrs, "reconciliation_required", true)...)
	metrics.BallotReconciliationRequired.Inc()

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if aerr := c.Store.Audit().Append(bg, &voterID, domain.AuditReconciliationRequired, ip, ua,
		map[string]any{"error": err.Error(), "request_id": middleware.RequestIDFromContext(ctx)}); aerr != nil {
		slog.ErrorContext(ctx, "could not record reconciliation marker", "voter_id", voterID, "err", aerr)
	}
	if perr := c.Events.Publish(bg, events.ReconciliationRequired{
		VoterID: voterID.String(),
		Reason:  err.Error(),
		At:      c.now().UTC(),
	}); perr != nil {
		slog.WarnContext(ctx, "publish reconciliation required failed", "voter_id", voterID, "err", perr)
	}
}

func mintIssuanceToken() (string, error) {
	buf := make([]byte, issuanceTokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
