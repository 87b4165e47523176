package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"eventoensina-backend/internal/certificates"
	"eventoensina-backend/internal/models"
	"eventoensina-backend/internal/notifications"
	"eventoensina-backend/internal/storage"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

type recordingTransport struct {
	mu   sync.Mutex
	sent int
}

func (r *recordingTransport) Send(m *gomail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent++
	return nil
}

func setupFinalizeTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Participant{},
		&models.Event{},
		&models.Enrollment{},
		&models.Certificate{},
		&models.EmailJob{},
	))

	certSvc := &certificates.Service{
		DB:       db,
		Renderer: certificates.NewRenderer(t.TempDir()),
		Media:    &storage.Media{Root: t.TempDir()},
		SiteURL:  "https://eventoensina.com",
	}
	notifSvc := &notifications.Service{
		DB:        db,
		Transport: &recordingTransport{},
		From:      "noreply@eventoensina.com",
	}
	svc := &Service{
		DB:            db,
		Certificates:  certSvc,
		Notifications: notifSvc,
		SiteURL:       "https://eventoensina.com",
	}
	return svc, db
}

func seedFinalizedScenario(t *testing.T, db *gorm.DB) (*models.Event, *models.Participant) {
	end := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	hours := 8.0
	event := &models.Event{Title: "Oficina de Redação", EndDate: &end, Hours: &hours, Organizer: "Letras"}
	require.NoError(t, db.Create(event).Error)

	p := &models.Participant{Username: "maria", FullName: "Maria Souza", Email: "maria@example.com", Institution: "UFE"}
	require.NoError(t, db.Create(p).Error)
	require.NoError(t, db.Create(&models.Enrollment{EventID: event.EventID, ParticipantID: p.ParticipantID, Validated: true}).Error)
	return event, p
}

func TestFinalize_UnknownEvent(t *testing.T) {
	svc, _ := setupFinalizeTest(t)

	res, err := svc.Finalize(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 404, res.Code)
	assert.Equal(t, "Event not found", res.Error)
}

func TestFinalize_GeneratesAndNotifies(t *testing.T) {
	svc, db := setupFinalizeTest(t)
	event, p := seedFinalizedScenario(t, db)

	res, err := svc.Finalize(context.Background(), event.EventID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Generated)

	var stored models.Event
	require.NoError(t, db.First(&stored, "event_id = ?", event.EventID).Error)
	assert.True(t, stored.Finalized)

	var jobs []models.EmailJob
	require.NoError(t, db.Find(&jobs).Error)
	require.Len(t, jobs, 1)
	assert.Equal(t, p.Email, jobs[0].ToEmail)
	assert.Contains(t, jobs[0].Subject, event.Title)
	assert.Equal(t, models.EmailStatusPending, jobs[0].Status)
	require.Len(t, jobs[0].Attachments, 1)
}

// Re-finalizing is idempotent: no new certificates and, crucially, no second
// round of participant emails.
func TestFinalize_SecondRunSendsNothing(t *testing.T) {
	svc, db := setupFinalizeTest(t)
	event, _ := seedFinalizedScenario(t, db)

	_, err := svc.Finalize(context.Background(), event.EventID)
	require.NoError(t, err)

	res, err := svc.Finalize(context.Background(), event.EventID)
	require.NoError(t, err)
	assert.Zero(t, res.Generated)

	var jobCount int64
	db.Model(&models.EmailJob{}).Count(&jobCount)
	assert.EqualValues(t, 1, jobCount)

	var certCount int64
	db.Model(&models.Certificate{}).Count(&certCount)
	assert.EqualValues(t, 1, certCount)
}
