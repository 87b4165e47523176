package events

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeHandler_InvalidID(t *testing.T) {
	svc, _ := setupFinalizeTest(t)
	h := &Handlers{Service: svc}
	app := fiber.New()
	app.Post("/api/v1/events/:id/finalize", h.Finalize)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/events/nope/finalize", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFinalizeHandler_NotFound(t *testing.T) {
	svc, _ := setupFinalizeTest(t)
	h := &Handlers{Service: svc}
	app := fiber.New()
	app.Post("/api/v1/events/:id/finalize", h.Finalize)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/events/"+uuid.NewString()+"/finalize", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFinalizeHandler_Success(t *testing.T) {
	svc, db := setupFinalizeTest(t)
	event, _ := seedFinalizedScenario(t, db)
	h := &Handlers{Service: svc}
	app := fiber.New()
	app.Post("/api/v1/events/:id/finalize", h.Finalize)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/events/"+event.EventID.String()+"/finalize", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "Event finalized, 1 certificate(s) generated", out["message"])
	assert.EqualValues(t, 1, out["data"].(map[string]interface{})["generated"])
}
