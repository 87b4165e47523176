package events

import (
	"context"
	"errors"
	"fmt"

	"eventoensina-backend/internal/certificates"
	"eventoensina-backend/internal/models"
	"eventoensina-backend/internal/notifications"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service drives the event-finalization workflow: mark the event finalized,
// generate certificates for validated enrollments, and notify participants.
type Service struct {
	DB            *gorm.DB
	Certificates  *certificates.Service
	Notifications *notifications.Service
	SiteURL       string
}

type FinalizeResult struct {
	Generated int    `json:"generated"`
	Error     string `json:"error,omitempty"`
	Code      int    `json:"code,omitempty"`
}

// Finalize marks the event finalized and runs certificate generation.
// Generation is best-effort: the result reports the generated count even when
// some individual participants failed. Certificate-ready notifications go out
// only on the first finalization so re-runs do not re-email participants.
func (s *Service) Finalize(ctx context.Context, eventID uuid.UUID) (*FinalizeResult, error) {
	var event models.Event
	if err := s.DB.WithContext(ctx).First(&event, "event_id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &FinalizeResult{Error: "Event not found", Code: 404}, nil
		}
		return nil, err
	}

	firstFinalization := !event.Finalized
	if firstFinalization {
		if err := s.DB.WithContext(ctx).Model(&event).Update("finalized", true).Error; err != nil {
			return nil, fmt.Errorf("mark finalized: %w", err)
		}
	}

	generated, err := s.Certificates.GenerateForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if firstFinalization {
		s.notifyParticipants(ctx, &event)
	}
	return &FinalizeResult{Generated: generated}, nil
}

// notifyParticipants queues a certificate-ready email for every participant
// holding a certificate for the event. Notification failures are logged and
// never fail the finalization.
func (s *Service) notifyParticipants(ctx context.Context, event *models.Event) {
	var certs []models.Certificate
	if err := s.DB.WithContext(ctx).Where("event_id = ?", event.EventID).Find(&certs).Error; err != nil {
		log.Error().Err(err).Str("event_id", event.EventID.String()).Msg("could not load certificates for notification")
		return
	}

	for i := range certs {
		cert := &certs[i]
		var p models.Participant
		if err := s.DB.WithContext(ctx).First(&p, "participant_id = ?", cert.ParticipantID).Error; err != nil {
			log.Warn().Err(err).Str("certificate_id", cert.CertificateID.String()).Msg("certificate participant missing")
			continue
		}
		certURL := fmt.Sprintf("%s/participants/%s/certificates/", s.SiteURL, p.Username)
		if _, err := s.Notifications.QueueCertificateReady(ctx, &p, cert, event, certURL); err != nil {
			log.Error().Err(err).Str("to", p.Email).Msg("could not queue certificate-ready email")
		}
	}
}
