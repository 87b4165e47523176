package certificates

import (
	"context"
	"errors"
	"fmt"

	"eventoensina-backend/internal/models"
	"eventoensina-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Outcome is the per-participant result of one generation attempt.
type Outcome int

const (
	OutcomeGenerated Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

// VerifyURL builds the public verification URL for a certificate. With an
// empty site base the path is still a valid relative URL.
func VerifyURL(siteURL, publicID string) string {
	path := fmt.Sprintf("/certificates/verify/%s/", publicID)
	if siteURL == "" {
		return path
	}
	return siteURL + path
}

// Service drives bulk certificate generation for finalized events and serves
// public verification lookups.
type Service struct {
	DB       *gorm.DB
	Renderer *Renderer
	Media    *storage.Media
	SiteURL  string
}

// GenerateForEvent generates certificates for every validated enrollment of
// the event and returns how many were newly generated. Already-generated
// certificates are skipped, so repeated invocations are no-ops for completed
// participants. A failure for one participant never aborts the rest.
//
// The existence check and the write are not atomic across processes: two
// concurrent runs for the same event may both generate the same missing
// certificate. Duplicate avoidance is best-effort, not mutual exclusion.
func (s *Service) GenerateForEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	var event models.Event
	if err := s.DB.WithContext(ctx).First(&event, "event_id = ?", eventID).Error; err != nil {
		return 0, fmt.Errorf("load event: %w", err)
	}

	var enrollments []models.Enrollment
	if err := s.DB.WithContext(ctx).
		Preload("Participant").
		Where("event_id = ? AND validated = ?", eventID, true).
		Find(&enrollments).Error; err != nil {
		return 0, fmt.Errorf("load enrollments: %w", err)
	}

	generated := 0
	for i := range enrollments {
		outcome, err := s.generateOne(ctx, &event, &enrollments[i])
		switch outcome {
		case OutcomeGenerated:
			generated++
		case OutcomeFailed:
			log.Error().Err(err).
				Str("event_id", eventID.String()).
				Str("participant_id", enrollments[i].ParticipantID.String()).
				Msg("certificate generation failed")
		}
	}
	return generated, nil
}

func (s *Service) generateOne(ctx context.Context, event *models.Event, enr *models.Enrollment) (Outcome, error) {
	p := enr.Participant
	if p == nil {
		return OutcomeFailed, errors.New("enrollment has no participant")
	}

	dir, err := s.Media.ArtifactDir(p, storage.ArtifactCertificate)
	if err != nil {
		return OutcomeFailed, err
	}
	if p.BaseDir == "" {
		p.BaseDir = s.Media.ParticipantBase(p)
		if err := s.DB.WithContext(ctx).Model(p).Update("base_dir", p.BaseDir).Error; err != nil {
			log.Warn().Err(err).Str("participant_id", p.ParticipantID.String()).Msg("could not persist base dir")
		}
	}

	datePart := "sem_data"
	namePart := ""
	if event.EndDate != nil {
		datePart = event.EndDate.Format("2006_01_02")
		namePart = " - " + event.EndDate.Format("2006-01-02")
	}
	baseName := slug.Make(event.Title) + "_" + datePart

	var cert *models.Certificate
	var existing models.Certificate
	err = s.DB.WithContext(ctx).
		Where("participant_id = ? AND event_id = ?", p.ParticipantID, event.EventID).
		First(&existing).Error
	switch {
	case err == nil:
		cert = &existing
	case errors.Is(err, gorm.ErrRecordNotFound):
		cert = nil
	default:
		return OutcomeFailed, fmt.Errorf("lookup certificate: %w", err)
	}

	if cert != nil && storage.Exists(cert.PDFPath) {
		return OutcomeSkipped, nil
	}

	publicID := uuid.NewString()
	if cert != nil && cert.PublicID != "" {
		publicID = cert.PublicID
	}
	if cert == nil {
		eventID := event.EventID
		cert = &models.Certificate{
			ParticipantID: p.ParticipantID,
			EventID:       &eventID,
			PublicID:      publicID,
		}
	} else if cert.PublicID == "" {
		cert.PublicID = publicID
	}
	cert.Name = event.Title + namePart
	cert.Hours = event.Hours

	verifyURL := VerifyURL(s.SiteURL, publicID)
	in := RenderInput{
		ParticipantName: p.FullName,
		EventTitle:      event.Title,
		StartDate:       event.StartDate,
		EndDate:         event.EndDate,
		Hours:           event.Hours,
		Organizer:       event.Organizer,
		Location:        firstNonEmpty(event.Location, event.Modality),
		Institution:     p.Institution,
		VerifyURL:       verifyURL,
	}

	res, renderErr := s.Renderer.Render(in)
	if renderErr != nil {
		// Degrade to an HTML artifact so the participant still gets a
		// verifiable certificate.
		log.Warn().Err(renderErr).
			Str("participant_id", p.ParticipantID.String()).
			Msg("renderer unavailable, falling back to HTML certificate")
		htmlPath, werr := s.Media.WriteArtifact(dir, baseName+".html", RenderFallbackHTML(in))
		if werr != nil {
			return OutcomeFailed, werr
		}
		cert.FilePath = htmlPath
	} else {
		// Both buffers are complete before anything touches disk, so a write
		// failure leaves no partial artifact behind the record.
		pngPath, werr := s.Media.WriteArtifact(dir, baseName+".png", res.PNG)
		if werr != nil {
			return OutcomeFailed, werr
		}
		pdfPath, werr := s.Media.WriteArtifact(dir, baseName+".pdf", res.PDF)
		if werr != nil {
			return OutcomeFailed, werr
		}
		cert.PNGPath = pngPath
		cert.PDFPath = pdfPath
	}
	cert.QRData = verifyURL

	if err := s.DB.WithContext(ctx).Save(cert).Error; err != nil {
		return OutcomeFailed, fmt.Errorf("save certificate: %w", err)
	}
	return OutcomeGenerated, nil
}

// FindByPublicID resolves a public verification identifier to its certificate.
func (s *Service) FindByPublicID(ctx context.Context, publicID string) (*models.Certificate, error) {
	var cert models.Certificate
	if err := s.DB.WithContext(ctx).Where("public_id = ?", publicID).First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
