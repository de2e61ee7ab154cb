package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
)

type BallotStore struct{ db *gorm.DB }

func (s *Store) Ballots() *BallotStore { return &BallotStore{db: s.DB} }

func (bs *BallotStore) AppendIssuance(ctx context.Context, l *domain.IssuanceLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return translate(bs.db.WithContext(ctx).Create(l).Error)
}

func (bs *BallotStore) InsertVotes(ctx context.Context, votes []domain.Vote) error {
	if len(votes) == 0 {
		return nil
	}
	for i := range votes {
		if votes[i].ID == uuid.Nil {
			votes[i].ID = uuid.New()
		}
	}
	return translate(bs.db.WithContext(ctx).Create(&votes).Error)
}

// IncrementTally adds one to the candidate's count as a single statement. It
// reports false when no candidate with that id runs for position.
func (bs *BallotStore) IncrementTally(ctx context.Context, candidateID domain.CandidateID, position string) (bool, error) {
	tx := bs.db.WithContext(ctx).
		Model(&domain.Candidate{}).
		Where("id = ? AND position = ?", candidateID, position).
		UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1))
	return tx.RowsAffected == 1, tx.Error
}

func (bs *BallotStore) CountVotes(ctx context.Context, token string) (int64, error) {
	var n int64
	err := bs.db.WithContext(ctx).Model(&domain.Vote{}).Where("issuance_token = ?", token).Count(&n).Error
	return n, err
}

// CountIssuances reports how many issuance_log rows exist for a voter.
// More than zero means a ballot was recorded for them.
func (bs *BallotStore) CountIssuances(ctx context.Context, voterID domain.VoterID) (int64, error) {
	var n int64
	err := bs.db.WithContext(ctx).Model(&domain.IssuanceLog{}).Where("voter_id = ?", voterID).Count(&n).Error
	return n, err
}

type TallyMismatch struct {
	CandidateID domain.CandidateID `json:"candidateId"`
	Name        string             `json:"name"`
	Position    string             `json:"position"`
	Recorded    int64              `json:"recorded"`
	Counted     int64              `json:"counted"`
}

// TallyMismatches lists candidates whose vote_count differs from the number
// of vote rows recorded for them.
func (bs *BallotStore) TallyMismatches(ctx context.Context) ([]TallyMismatch, error) {
	var out []TallyMismatch
	err := bs.db.WithContext(ctx).Raw(`
		SELECT c.id AS candidate_id, c.name AS name, c.position AS position,
		       c.vote_count AS recorded, COUNT(v.id) AS counted
		FROM candidates c
		LEFT JOIN votes v ON v.candidate_id = c.id
		GROUP BY c.id, c.name, c.position, c.vote_count
		HAVING c.vote_count <> COUNT(v.id)
		ORDER BY c.position, c.name`).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
