package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate is one issued completion certificate per (participant, event)
// pair. PublicID is the opaque token embedded in the verification QR code; it
// is assigned once and never rewritten.
type Certificate struct {
	CertificateID uuid.UUID      `gorm:"column:certificate_id;type:uuid;primaryKey" json:"certificate_id"`
	ParticipantID uuid.UUID      `gorm:"column:participant_id;type:uuid;not null;uniqueIndex:idx_certificate_participant_event" json:"participant_id"`
	EventID       *uuid.UUID     `gorm:"column:event_id;type:uuid;uniqueIndex:idx_certificate_participant_event" json:"event_id"`
	Name          string         `gorm:"column:name" json:"name"`
	Hours         *float64       `gorm:"column:hours;type:decimal(5,2)" json:"hours"`
	PublicID      string         `gorm:"column:public_id;size:64;uniqueIndex" json:"public_id"`
	QRData        string         `gorm:"column:qr_data;size:500" json:"qr_data"`
	PDFPath       string         `gorm:"column:pdf_path" json:"pdf_path"`
	PNGPath       string         `gorm:"column:png_path" json:"png_path"`
	FilePath      string         `gorm:"column:file_path" json:"file_path"`
	IssuedAt      time.Time      `gorm:"column:issued_at;autoCreateTime" json:"issued_at"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Certificate) TableName() string {
	return "Certificates"
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.CertificateID == uuid.Nil {
		c.CertificateID = uuid.New()
	}
	return nil
}
