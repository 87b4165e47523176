package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enrollment links a participant to an event. Only validated enrollments are
// eligible for certificate generation.
type Enrollment struct {
	EnrollmentID  uuid.UUID      `gorm:"column:enrollment_id;type:uuid;primaryKey" json:"enrollment_id"`
	EventID       uuid.UUID      `gorm:"column:event_id;type:uuid;not null;uniqueIndex:idx_enrollment_event_participant" json:"event_id"`
	ParticipantID uuid.UUID      `gorm:"column:participant_id;type:uuid;not null;uniqueIndex:idx_enrollment_event_participant" json:"participant_id"`
	Validated     bool           `gorm:"column:validated;not null;default:false" json:"validated"`
	Participant   *Participant   `gorm:"foreignKey:ParticipantID;references:ParticipantID" json:"participant,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Enrollment) TableName() string {
	return "Enrollments"
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.EnrollmentID == uuid.Nil {
		e.EnrollmentID = uuid.New()
	}
	return nil
}
