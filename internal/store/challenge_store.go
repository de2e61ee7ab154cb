package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
)

type OTPStore struct{ db *gorm.DB }

func (s *Store) OTPs() *OTPStore { return &OTPStore{db: s.DB} }

// Issue supersedes every open challenge of the voter and stores c.
func (o *OTPStore) Issue(ctx context.Context, c *domain.OneTimeChallenge) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.OneTimeChallenge{}).
			Where("voter_id = ? AND consumed = ? AND superseded_at IS NULL", c.VoterID, false).
			Update("superseded_at", c.CreatedAt).Error; err != nil {
			return err
		}
		return tx.Create(c).Error
	})
}

// Consume marks the open, unexpired challenge matching codeHash as consumed.
// Exactly one caller can win for a given challenge.
func (o *OTPStore) Consume(ctx context.Context, voterID domain.VoterID, codeHash []byte, now time.Time) (bool, error) {
	tx := o.db.WithContext(ctx).
		Model(&domain.OneTimeChallenge{}).
		Where("voter_id = ? AND otp_code = ? AND consumed = ? AND superseded_at IS NULL AND expires_at > ?",
			voterID, codeHash, false, now.UTC()).
		Update("consumed", true)
	return tx.RowsAffected == 1, tx.Error
}

type BiometricChallengeStore struct{ db *gorm.DB }

func (s *Store) BiometricChallenges() *BiometricChallengeStore {
	return &BiometricChallengeStore{db: s.DB}
}

func (bs *BiometricChallengeStore) Create(ctx context.Context, c *domain.BiometricChallenge) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return bs.db.WithContext(ctx).Create(c).Error
}

// Consume claims the challenge for one verification and returns it. Expired,
// foreign or already consumed challenges are ErrRecordNotFound.
func (bs *BiometricChallengeStore) Consume(ctx context.Context, id uuid.UUID, voterID domain.VoterID, now time.Time) (*domain.BiometricChallenge, error) {
	now = now.UTC()
	tx := bs.db.WithContext(ctx).
		Model(&domain.BiometricChallenge{}).
		Where("id = ? AND voter_id = ? AND consumed_at IS NULL AND expires_at > ?", id, voterID, now).
		Update("consumed_at", now)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	var out domain.BiometricChallenge
	if err := bs.db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}
