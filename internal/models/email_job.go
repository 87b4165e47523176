package models

import (
	"time"

	"gorm.io/datatypes"
)

// EmailStatus is the delivery state of an EmailJob. Transitions only move
// forward: pending -> sending -> sent, or sending -> pending (retry) until
// retries run out, then sending -> failed. Both sent and failed are terminal.
type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSending EmailStatus = "sending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
)

// Attachment describes one file to attach to an outgoing email. A non-empty
// CID on an image attachment embeds it inline for cid: references in the HTML
// body.
type Attachment struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	MimeType string `json:"mimetype"`
	CID      string `json:"cid,omitempty"`
}

// EmailJob is one queued outbound email. The integer primary key doubles as
// the wire identifier on the dispatch socket.
type EmailJob struct {
	ID          uint                             `gorm:"primaryKey" json:"id"`
	ToEmail     string                           `gorm:"column:to_email;not null" json:"to_email"`
	Subject     string                           `gorm:"column:subject;size:255;not null" json:"subject"`
	TextBody    string                           `gorm:"column:text_body" json:"text_body"`
	HTMLBody    string                           `gorm:"column:html_body" json:"html_body"`
	Attachments datatypes.JSONSlice[Attachment]  `gorm:"column:attachments" json:"attachments"`
	Status      EmailStatus                      `gorm:"column:status;size:16;not null;default:pending;index" json:"status"`
	Retries     int                              `gorm:"column:retries;not null;default:0" json:"retries"`
	ScheduledAt time.Time                        `gorm:"column:scheduled_at;index" json:"scheduled_at"`
	SentAt      *time.Time                       `gorm:"column:sent_at" json:"sent_at"`
	LastError   string                           `gorm:"column:last_error" json:"last_error"`
	CreatedAt   time.Time                        `json:"createdAt"`
	UpdatedAt   time.Time                        `json:"updatedAt"`
}

func (EmailJob) TableName() string {
	return "EmailJobs"
}
