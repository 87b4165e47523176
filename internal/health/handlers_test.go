package health

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f *fakePinger) Ping() error { return f.err }

type fakeQueue struct{ depth int }

func (f *fakeQueue) QueueDepth() int { return f.depth }

func TestJSON_ReturnsStructure(t *testing.T) {
	h := &Handlers{DB: &fakePinger{}, Queue: &fakeQueue{depth: 3}}
	app := fiber.New()
	app.Get("/health/json", h.JSON)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "ok", out["status"])
	assert.Contains(t, out, "runtime")
	assert.Contains(t, out, "dependencies")

	queue := out["queue"].(map[string]interface{})
	assert.Equal(t, true, queue["dispatcherRunning"])
	assert.EqualValues(t, 3, queue["depth"])

	deps := out["dependencies"].(map[string]interface{})
	assert.Equal(t, "connected", deps["database"].(map[string]interface{})["status"])
}

func TestJSON_ReportsIssueOnDBFailure(t *testing.T) {
	h := &Handlers{DB: &fakePinger{err: errors.New("conn refused")}}
	app := fiber.New()
	app.Get("/health/json", h.JSON)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "issue", out["status"])
}

func TestCollectHealth_NilDependencies(t *testing.T) {
	result := CollectHealth(nil, nil)
	assert.Equal(t, "issue", result.Status)
	assert.False(t, result.Queue.DispatcherRunning)
	assert.Equal(t, "disconnected", result.Dependencies["database"].Status)
	assert.NotEmpty(t, result.Runtime.GoVersion)
}
