package impl

import (
	"context"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
)

type BallotCatalogImpl struct {
	Store dataStore
}

func NewBallotCatalog(st *store.Store) *BallotCatalogImpl {
	return &BallotCatalogImpl{Store: gormStoreAdapter{store: st}}
}

func (c *BallotCatalogImpl) Catalog(ctx context.Context) (*dto.CatalogResponse, error) {
	cat, err := c.Store.Catalog().Snapshot(ctx)
	if err != nil {
		return nil, storageErr("load catalog", err)
	}
	out := &dto.CatalogResponse{
		Positions:  []dto.Position{},
		Candidates: []dto.Candidate{},
	}
	for _, p := range cat.Positions() {
		out.Positions = append(out.Positions, dto.Position{
			ID:            p.ID.String(),
			Name:          p.Name,
			VoteType:      string(p.VoteType),
			MaxSelections: p.MaxSelections,
		})
	}
	for _, cand := range cat.Candidates() {
		out.Candidates = append(out.Candidates, dto.Candidate{
			ID:       cand.ID.String(),
			Name:     cand.Name,
			Position: cand.Position,
		})
	}
	return out, nil
}
