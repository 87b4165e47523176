package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is an institution event eligible for certificate issuance once finalized.
type Event struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	StartDate *time.Time     `gorm:"column:start_date" json:"start_date"`
	EndDate   *time.Time     `gorm:"column:end_date" json:"end_date"`
	Organizer string         `gorm:"column:organizer" json:"organizer"`
	Location  string         `gorm:"column:location" json:"location"`
	Modality  string         `gorm:"column:modality" json:"modality"`
	Hours     *float64       `gorm:"column:hours;type:decimal(5,2)" json:"hours"`
	Finalized bool           `gorm:"column:finalized;not null;default:false" json:"finalized"`
	CreatorID *uuid.UUID     `gorm:"column:creator_id;type:uuid" json:"creator_id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Event) TableName() string {
	return "Events"
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
