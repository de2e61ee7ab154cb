package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/ballot"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
)

type CatalogStore struct{ db *gorm.DB }

func (s *Store) Catalog() *CatalogStore { return &CatalogStore{db: s.DB} }

func (cs *CatalogStore) ListPositions(ctx context.Context) ([]domain.Position, error) {
	var out []domain.Position
	if err := cs.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (cs *CatalogStore) ListCandidates(ctx context.Context) ([]domain.Candidate, error) {
	var out []domain.Candidate
	if err := cs.db.WithContext(ctx).Order("position").Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot reads positions and candidates and returns them as a validated
// catalog. Inside a transaction both reads see the same data.
func (cs *CatalogStore) Snapshot(ctx context.Context) (*ballot.Catalog, error) {
	positions, err := cs.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := cs.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}
	return ballot.NewCatalog(positions, candidates)
}

func (cs *CatalogStore) CreatePosition(ctx context.Context, p *domain.Position) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return translate(cs.db.WithContext(ctx).Create(p).Error)
}

func (cs *CatalogStore) CreateCandidate(ctx context.Context, c *domain.Candidate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return translate(cs.db.WithContext(ctx).Create(c).Error)
}

func (cs *CatalogStore) GetCandidate(ctx context.Context, id domain.CandidateID) (*domain.Candidate, error) {
	var c domain.Candidate
	if err := cs.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}
