package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
)

type VoterStore struct{ db *gorm.DB }

func (s *Store) Voters() *VoterStore { return &VoterStore{db: s.DB} }

func (vs *VoterStore) Create(ctx context.Context, v *domain.Voter) error {
	now := time.Now().UTC()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	return translate(vs.db.WithContext(ctx).Create(v).Error)
}

func (vs *VoterStore) GetByID(ctx context.Context, id domain.VoterID) (*domain.Voter, error) {
	var v domain.Voter
	if err := vs.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (vs *VoterStore) GetByMatric(ctx context.Context, matric string) (*domain.Voter, error) {
	var v domain.Voter
	if err := vs.db.WithContext(ctx).First(&v, "matric = ?", matric).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (vs *VoterStore) MarkVerified(ctx context.Context, id domain.VoterID) error {
	tx := vs.db.WithContext(ctx).
		Model(&domain.Voter{}).
		Where("id = ?", id).
		Updates(map[string]any{"verified": true, "updated_at": time.Now().UTC()})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// MarkVoted flips voted from false to true in one statement. It reports false
// when the voter had already voted (or does not exist).
func (vs *VoterStore) MarkVoted(ctx context.Context, id domain.VoterID) (bool, error) {
	tx := vs.db.WithContext(ctx).
		Model(&domain.Voter{}).
		Where("id = ? AND voted = ?", id, false).
		Updates(map[string]any{"voted": true, "updated_at": time.Now().UTC()})
	return tx.RowsAffected == 1, tx.Error
}

// ResetVoted is the administrative override. Issuance and vote rows are left
// untouched.
func (vs *VoterStore) ResetVoted(ctx context.Context, id domain.VoterID) (bool, error) {
	tx := vs.db.WithContext(ctx).
		Model(&domain.Voter{}).
		Where("id = ? AND voted = ?", id, true).
		Updates(map[string]any{"voted": false, "updated_at": time.Now().UTC()})
	return tx.RowsAffected == 1, tx.Error
}
