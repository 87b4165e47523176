package notifications

import (
	"errors"
	"time"

	"eventoensina-backend/internal/models"
	"eventoensina-backend/internal/pkg/response"
	"eventoensina-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Handlers bundles notification handlers with the service.
type Handlers struct {
	Service *Service
}

type enqueueRequest struct {
	To          string              `json:"to"`
	Subject     string              `json:"subject"`
	TextBody    string              `json:"text_body"`
	HTMLBody    string              `json:"html_body"`
	Attachments []models.Attachment `json:"attachments"`
	ScheduledAt *time.Time          `json:"scheduled_at"`
	SendNow     bool                `json:"send_now"`
}

// Enqueue POST /api/v1/notifications/enqueue
func (h *Handlers) Enqueue(c *fiber.Ctx) error {
	var req enqueueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "invalid request body", 400, nil)
	}
	if !validation.IsValidEmail(req.To) {
		return response.Error(c, "a valid recipient email is required", 400, nil)
	}
	if req.Subject == "" {
		return response.Error(c, "subject is required", 400, nil)
	}

	job, err := h.Service.Enqueue(c.Context(), EnqueueParams{
		To:          req.To,
		Subject:     req.Subject,
		TextBody:    req.TextBody,
		HTMLBody:    req.HTMLBody,
		Attachments: req.Attachments,
		ScheduledAt: req.ScheduledAt,
		SendNow:     req.SendNow,
	})
	if err != nil {
		return response.Error(c, "Failed to send email", 500, nil)
	}
	if job == nil {
		// Immediate send: no job record exists.
		return response.Success(c, "Email sent", nil, nil)
	}
	return response.SuccessCreated(c, "Email queued", fiber.Map{"job_id": job.ID}, nil)
}

// ViewJob GET /api/v1/notifications/jobs/:id
func (h *Handlers) ViewJob(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.Error(c, "invalid job id", 400, nil)
	}

	var job models.EmailJob
	if err := h.Service.DB.WithContext(c.Context()).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Error(c, "Email job not found", 404, nil)
		}
		return response.Error(c, "Failed to load email job", 500, nil)
	}
	return response.Success(c, "Email job found", job, nil)
}
