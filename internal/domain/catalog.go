package domain

type VoteType string

const (
	VoteTypeSingle   VoteType = "single"
	VoteTypeMultiple VoteType = "multiple"
)

func (t VoteType) Valid() bool {
	return t == VoteTypeSingle || t == VoteTypeMultiple
}

type Position struct {
	ID            PositionID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Name          string     `gorm:"type:text;not null;uniqueIndex:ux_positions_name" db:"name" json:"name"`
	VoteType      VoteType   `gorm:"type:text;not null;default:single" db:"vote_type" json:"voteType"`
	MaxSelections int        `gorm:"not null;default:1" db:"max_selections" json:"maxSelections"`
}

func (Position) TableName() string { return "positions" }

type Candidate struct {
	ID        CandidateID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Name      string      `gorm:"type:text;not null" db:"name" json:"name"`
	Position  string      `gorm:"type:text;not null;index" db:"position" json:"position"`
	VoteCount int64       `gorm:"not null;default:0" db:"vote_count" json:"-"`
}

func (Candidate) TableName() string { return "candidates" }
