package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Participant is a person who can enroll in events and receive certificates.
type Participant struct {
	ParticipantID uuid.UUID      `gorm:"column:participant_id;type:uuid;primaryKey" json:"participant_id"`
	Username      string         `gorm:"column:username;not null;uniqueIndex" json:"username"`
	FullName      string         `gorm:"column:full_name;not null" json:"full_name"`
	Email         string         `gorm:"column:email;not null" json:"email"`
	Institution   string         `gorm:"column:institution" json:"institution"`
	BaseDir       string         `gorm:"column:base_dir" json:"-"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Participant) TableName() string {
	return "Participants"
}

// BeforeCreate sets UUID if not set (for DBs without gen_random_uuid).
func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	if p.ParticipantID == uuid.Nil {
		p.ParticipantID = uuid.New()
	}
	return nil
}
