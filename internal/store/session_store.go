package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
)

type SessionStore struct{ db *gorm.DB }

func (s *Store) Sessions() *SessionStore { return &SessionStore{s.DB} }

func (ss *SessionStore) Create(ctx context.Context, s *domain.Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return ss.db.WithContext(ctx).Create(s).Error
}

func (ss *SessionStore) Get(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	var s domain.Session
	if err := ss.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Consume spends an active session. It reports false when the session was
// already consumed, revoked or has expired.
func (ss *SessionStore) Consume(ctx context.Context, id domain.SessionID, at time.Time) (bool, error) {
	at = at.UTC()
	tx := ss.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND consumed_at IS NULL AND revoked_at IS NULL AND expires_at > ?", id, at).
		Update("consumed_at", at)
	return tx.RowsAffected == 1, tx.Error
}

// RevokeAllForVoter revokes every session of the voter that is still usable.
func (ss *SessionStore) RevokeAllForVoter(ctx context.Context, voterID domain.VoterID, at time.Time) (int64, error) {
	tx := ss.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("voter_id = ? AND revoked_at IS NULL AND consumed_at IS NULL", voterID).
		Update("revoked_at", at.UTC())
	return tx.RowsAffected, tx.Error
}
