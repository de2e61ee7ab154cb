package service

import (
	"context"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
)

type BallotCatalog interface {
	Catalog(ctx context.Context) (*dto.CatalogResponse, error)
}

type BallotCommitter interface {
	Commit(ctx context.Context, r dto.SubmitBallotRequest, ip, ua string) (*dto.SubmitBallotResponse, error)
}
