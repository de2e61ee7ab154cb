package service

import (
	"context"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
)

type SessionGuard interface {
	// Issue mints a session for an attempt that reached StageAuthenticated.
	Issue(ctx context.Context, a domain.Attempt, ip, ua string) (*dto.Session, error)
	// Authenticate resolves a token to its live session row without spending it.
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}
