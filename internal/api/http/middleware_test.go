package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atendesk/atendesk/internal/observability"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

func newTestApp(timeout time.Duration) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), timeout)
	return app
}

func TestRequestDeadlineReachesHandlers(t *testing.T) {
	app := newTestApp(5 * time.Second)

	var hasDeadline bool
	app.Get("/check", func(c *fiber.Ctx) error {
		_, hasDeadline = c.UserContext().Deadline()
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/check", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, hasDeadline)
}

func TestExpiredDeadlineMapsToGatewayTimeout(t *testing.T) {
	app := newTestApp(time.Nanosecond)

	app.Get("/slow", func(c *fiber.Ctx) error {
		<-c.UserContext().Done()
		return c.UserContext().Err()
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/slow", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusGatewayTimeout, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, apperrors.CodeTransportFailed, body.Error.Code)
}

func TestDomainErrorRendersEnvelope(t *testing.T) {
	app := newTestApp(0)

	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperrors.NewConflict("conversation already closed", map[string]any{"id": "c1"})
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/conflict", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, apperrors.CodeConflict, body.Error.Code)
	assert.Equal(t, "conversation already closed", body.Error.Message)
	assert.Equal(t, "c1", body.Error.Details["id"])
}

func TestPanicBecomesInternalError(t *testing.T) {
	app := newTestApp(0)

	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("unexpected")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
