package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
)

type CredentialStore struct{ db *gorm.DB }

func (s *Store) Credentials() *CredentialStore { return &CredentialStore{s.DB} }

// Enroll stores a voter's only biometric credential. A second credential for
// the voter, or a reused credential id, is ErrDuplicate.
func (cs *CredentialStore) Enroll(ctx context.Context, c *domain.BiometricCredential) error {
	now := time.Now().UTC()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return translate(cs.db.WithContext(ctx).Create(c).Error)
}

func (cs *CredentialStore) GetByVoter(ctx context.Context, voterID domain.VoterID) (*domain.BiometricCredential, error) {
	var out domain.BiometricCredential
	if err := cs.db.WithContext(ctx).First(&out, "voter_id = ?", voterID).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// AdvanceCounter moves the stored signature counter forward. It reports false
// when the stored counter is already at or beyond counter, which means the
// assertion was replayed or the authenticator was cloned.
func (cs *CredentialStore) AdvanceCounter(ctx context.Context, voterID domain.VoterID, credentialID []byte, counter uint32) (bool, error) {
	now := time.Now().UTC()
	tx := cs.db.WithContext(ctx).
		Model(&domain.BiometricCredential{}).
		Where("voter_id = ? AND credential_id = ? AND counter < ?", voterID, credentialID, counter).
		Updates(map[string]any{"counter": counter, "last_used_at": now, "updated_at": now})
	return tx.RowsAffected == 1, tx.Error
}
