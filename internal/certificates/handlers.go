package certificates

import (
	"errors"

	"eventoensina-backend/internal/metrics"
	"eventoensina-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handlers bundles certificate handlers with the service.
type Handlers struct {
	Service *Service
}

// Verify GET /certificates/verify/:publicID
// Public QR-code verification endpoint: resolves the opaque public identifier
// to the certificate record and the preferred artifact path.
func (h *Handlers) Verify(c *fiber.Ctx) error {
	publicID := c.Params("publicID")
	if publicID == "" {
		return response.Error(c, "public id is required", 400, nil)
	}

	cert, err := h.Service.FindByPublicID(c.Context(), publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Error(c, "Certificate not found", 404, nil)
		}
		return response.Error(c, "Failed to load certificate", 500, nil)
	}

	fileURL := cert.PDFPath
	if fileURL == "" {
		fileURL = cert.PNGPath
	}
	if fileURL == "" {
		fileURL = cert.FilePath
	}
	return response.Success(c, "Certificate found", fiber.Map{
		"certificate": cert,
		"file_url":    fileURL,
	}, nil)
}

// Generate POST /api/v1/events/:id/generate-certificates
// Invoked by the event-finalization workflow. Reports the count of newly
// generated certificates; individual failures are logged, not surfaced.
func (h *Handlers) Generate(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid event id", 400, nil)
	}

	generated, err := h.Service.GenerateForEvent(c.Context(), eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Error(c, "Event not found", 404, nil)
		}
		metrics.CertificateFailures.Inc()
		return response.Error(c, "Certificate generation failed", 500, nil)
	}
	metrics.CertificatesGenerated.Add(float64(generated))
	return response.Success(c, "Certificates generated", fiber.Map{"generated": generated}, nil)
}
