package events

import (
	"fmt"

	"eventoensina-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles event handlers with the service.
type Handlers struct {
	Service *Service
}

// Finalize POST /api/v1/events/:id/finalize
// Reports success with the generated-certificate count even when individual
// generations failed; a broken generation subsystem must not block
// finalization.
func (h *Handlers) Finalize(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid event id", 400, nil)
	}

	res, err := h.Service.Finalize(c.Context(), eventID)
	if err != nil {
		return response.Error(c, "Failed to finalize event", 500, nil)
	}
	if res.Error != "" {
		return response.Error(c, res.Error, res.Code, nil)
	}
	msg := fmt.Sprintf("Event finalized, %d certificate(s) generated", res.Generated)
	return response.Success(c, msg, res, nil)
}
