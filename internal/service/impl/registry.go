package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/events"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/middleware"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
)

type VoterRegistryImpl struct {
	Store  dataStore
	Events events.Publisher
}

func NewVoterRegistry(st *store.Store, pub events.Publisher) *VoterRegistryImpl {
	return &VoterRegistryImpl{Store: gormStoreAdapter{store: st}, Events: pub}
}

func (r *VoterRegistryImpl) Lookup(ctx context.Context, req dto.LookupVoterRequest) (*dto.LookupVoterResponse, error) {
	matric := strings.TrimSpace(req.Matric)
	if matric == "" {
		return nil, ErrEmptyMatric
	}
	v, err := r.Store.Voters().GetByMatric(ctx, matric)
	if err != nil {
		if isNotFound(err) {
			return &dto.LookupVoterResponse{}, nil
		}
		return nil, storageErr("lookup voter", err)
	}
	enrolled := true
	if _, err := r.Store.Credentials().GetByVoter(ctx, v.ID); err != nil {
		if !isNotFound(err) {
			return nil, storageErr("lookup credential", err)
		}
		enrolled = false
	}
	return &dto.LookupVoterResponse{Voter: &dto.VoterSummary{
		ID:                v.ID.String(),
		Email:             v.Email,
		Verified:          v.Verified,
		BiometricEnrolled: enrolled,
	}}, nil
}

func (r *VoterRegistryImpl) Register(ctx context.Context, req dto.RegisterVoterRequest, ip, ua string) (*dto.RegisterVoterResponse, error) {
	matric := strings.TrimSpace(req.Matric)
	name := strings.TrimSpace(req.Name)
	if matric == "" {
		return nil, ErrEmptyMatric
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()
	v := &domain.Voter{
		ID:        uuid.New(),
		Matric:    matric,
		Name:      name,
		Email:     addr.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.Store.Voters().Create(ctx, v); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: matric already registered", domain.ErrConflict)
		}
		return nil, storageErr("create voter", err)
	}

	slog.InfoContext(ctx, "voter registered", append(middleware.LogAttrs(ctx), "voter_id", v.ID, "ip", ip)...)
	if err := r.Events.Publish(ctx, events.VoterRegistered{VoterID: v.ID.String(), At: now}); err != nil {
		slog.WarnContext(ctx, "publish voter registered failed", "voter_id", v.ID, "err", err)
	}
	return &dto.RegisterVoterResponse{VoterID: v.ID.String()}, nil
}

// ResetVoted clears the voted flag so the voter can submit again. Issuance
// and vote rows from the earlier submission are left for the operator to
// reconcile by hand.
func (r *VoterRegistryImpl) ResetVoted(ctx context.Context, voterID domain.VoterID, operator, reason string) error {
	if strings.TrimSpace(operator) == "" || strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: operator and reason are required", domain.ErrInvalidRequest)
	}
	err := r.Store.WithTx(ctx, func(tx storeTx) error {
		ok, err := tx.Voters().ResetVoted(ctx, voterID)
		if err != nil {
			return storageErr("reset voted", err)
		}
		if !ok {
			if _, err := tx.Voters().GetByID(ctx, voterID); err != nil {
				if isNotFound(err) {
					return domain.ErrNotRegistered
				}
				return storageErr("load voter", err)
			}
			return fmt.Errorf("%w: voter has not voted", domain.ErrConflict)
		}
		return tx.Audit().Append(ctx, &voterID, domain.AuditVotedOverride, "", "",
			map[string]any{"operator": operator, "reason": reason})
	})
	if err != nil {
		return err
	}
	slog.WarnContext(ctx, "voted flag reset by operator", "voter_id", voterID, "operator", operator, "reason", reason)
	return nil
}
