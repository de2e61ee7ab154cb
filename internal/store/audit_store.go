package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
)

type AuditStore struct{ db *gorm.DB }

func (s *Store) Audit() *AuditStore { return &AuditStore{db: s.DB} }

func (as *AuditStore) Append(ctx context.Context, voterID *domain.VoterID, action, ip, ua string, meta map[string]any) error {
	var raw []byte
	if len(meta) > 0 {
		b, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		raw = b
	}
	return as.db.WithContext(ctx).Create(&domain.AuditLog{
		ID:        uuid.New(),
		VoterID:   voterID,
		Action:    action,
		Metadata:  raw,
		IP:        ip,
		UserAgent: ua,
		CreatedAt: time.Now().UTC(),
	}).Error
}

func (as *AuditStore) ListByAction(ctx context.Context, action string, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.AuditLog
	err := as.db.WithContext(ctx).
		Where("action = ?", action).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
