package domain

import "time"

type Voter struct {
	ID        VoterID   `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Matric    string    `gorm:"type:text;not null;uniqueIndex:ux_voters_matric" db:"matric" json:"matric"`
	Name      string    `gorm:"type:text;not null" db:"name" json:"name"`
	Email     string    `gorm:"type:text;not null" db:"email" json:"email"`
	Verified  bool      `gorm:"not null;default:false" db:"verified" json:"verified"`
	Voted     bool      `gorm:"not null;default:false" db:"voted" json:"voted"`
	CreatedAt time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Voter) TableName() string { return "voters" }
