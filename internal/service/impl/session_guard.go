package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/jwtsigner"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/netutil"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/middleware"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
)

// SessionGuardImpl mints ballot sessions and resolves presented tokens. A
// token is only as good as its sessions row: the row is what makes it
// single use and revocable.
type SessionGuardImpl struct {
	Store  dataStore
	Signer *jwtsigner.Signer
	TTL    time.Duration

	now func() time.Time
}

func NewSessionGuard(st *store.Store, signer *jwtsigner.Signer, ttl time.Duration) *SessionGuardImpl {
	return &SessionGuardImpl{
		Store:  gormStoreAdapter{store: st},
		Signer: signer,
		TTL:    ttl,
		now:    time.Now,
	}
}

func (g *SessionGuardImpl) Issue(ctx context.Context, a domain.Attempt, ip, ua string) (*dto.Session, error) {
	if a.Stage != domain.StageAuthenticated {
		return nil, fmt.Errorf("%w: cannot issue a session from %s", domain.ErrInvalidTransition, a.Stage)
	}
	now := g.now().UTC()
	sess := &domain.Session{
		ID:        uuid.New(),
		VoterID:   a.VoterID,
		Method:    a.Method,
		CreatedAt: now,
		ExpiresAt: now.Add(g.TTL),
		IP:        ip,
		UserAgent: netutil.TruncateUserAgent(ua),
	}
	if err := g.Store.Sessions().Create(ctx, sess); err != nil {
		return nil, storageErr("create session", err)
	}
	token, err := g.Signer.Sign(a.VoterID.String(), sess.ID.String(), string(a.Method), now, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	slog.InfoContext(ctx, "issued ballot session",
		append(middleware.LogAttrs(ctx), "session_id", sess.ID, "voter_id", a.VoterID, "method", a.Method)...)

	return &dto.Session{Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

func (g *SessionGuardImpl) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: missing session", domain.ErrUnauthorized)
	}
	claims, err := g.Signer.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed session id", domain.ErrUnauthorized)
	}
	voterID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", domain.ErrUnauthorized)
	}

	sess, err := g.Store.Sessions().Get(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: unknown session", domain.ErrUnauthorized)
		}
		return nil, storageErr("load session", err)
	}
	if sess.VoterID != voterID || !sess.Active(g.now()) {
		return nil, fmt.Errorf("%w: session expired, consumed or revoked", domain.ErrUnauthorized)
	}
	return sess, nil
}
