package health

import (
	"github.com/gofiber/fiber/v2"
)

// Handlers serves health endpoints.
type Handlers struct {
	DB    DBPinger
	Queue QueueDepther
}

// JSON GET /health/json
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := CollectHealth(h.DB, h.Queue)
	code := fiber.StatusOK
	if result.Status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(result)
}
