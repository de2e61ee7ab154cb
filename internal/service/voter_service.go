package service

import (
	"context"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
)

type VoterRegistry interface {
	Lookup(ctx context.Context, r dto.LookupVoterRequest) (*dto.LookupVoterResponse, error)
	Register(ctx context.Context, r dto.RegisterVoterRequest, ip, ua string) (*dto.RegisterVoterResponse, error)
	// ResetVoted is the administrative override of the voted flag.
	ResetVoted(ctx context.Context, voterID domain.VoterID, operator, reason string) error
}
