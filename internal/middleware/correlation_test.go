package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIDPropagatesIncomingHeader(t *testing.T) {
	var fromLocals, fromContext string
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		fromLocals = GetCorrelationID(c)
		fromContext = CorrelationIDFromContext(c.UserContext())
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "abc-123", resp.Header.Get("X-Correlation-ID"))
	require.Equal(t, "abc-123", fromLocals)
	require.Equal(t, "abc-123", fromContext)
}

func TestCorrelationIDGeneratesWhenMissing(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Len(t, resp.Header.Get("X-Correlation-ID"), 36)
}

func TestCorrelationIDReplacesUnsafeIncomingIDs(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	cases := map[string]string{
		"log injection": "abc\tsiswa=admin",
		"too long":      strings.Repeat("a", 65),
		"spaces":        "roster request",
	}
	for name, incoming := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderCorrelationID, incoming)
		resp, err := app.Test(req)
		require.NoError(t, err, name)

		got := resp.Header.Get(HeaderCorrelationID)
		require.NotEqual(t, incoming, got, name)
		_, parseErr := uuid.Parse(got)
		require.NoError(t, parseErr, name)
	}
}

func TestCorrelationIDPrefersCorrelationHeaderOverRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(CorrelationIDFromContext(c.UserContext()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "siswa-7c:42")
	req.Header.Set("X-Request-ID", "ignored")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "siswa-7c:42", resp.Header.Get(HeaderCorrelationID))
}

func TestRateLimitRejectsBurst(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit("test", 2, 0))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}
	require.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, statuses)
}
