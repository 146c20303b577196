package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/siswa-api/internal/observability"
)

const apiPrefix = "/api/"

var latencyBuckets = []struct {
	limit time.Duration
	label string
}{
	{25 * time.Millisecond, "<=25ms"},
	{100 * time.Millisecond, "<=100ms"},
	{500 * time.Millisecond, "<=500ms"},
	{2 * time.Second, "<=2s"},
}

// Observability records request metrics for the roster API and logs one line
// per request with its resource (students, settings, assistant, seed). The
// scrape endpoint is not recorded; the settings stream and assistant websocket
// are counted without a latency observation.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()
	logger = logger.With().Str("component", "http").Logger()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Path()
		if !strings.HasPrefix(path, apiPrefix) || strings.HasSuffix(path, "/metrics") {
			return err
		}

		duration := time.Since(start)
		route := routeTemplate(c)
		method := c.Method()
		status := c.Response().StatusCode()
		statusLabel := strconv.Itoa(status)

		observability.APIRequests().WithLabelValues(method, route, statusLabel).Inc()
		if !isStreamRoute(route) {
			observability.APILatency().WithLabelValues(method, route).Observe(duration.Seconds())
		}
		if status >= fiber.StatusBadRequest {
			observability.APIErrors().WithLabelValues(method, route, statusLabel).Inc()
		}

		event := logger.Info()
		message := "roster api request served"
		switch {
		case status >= fiber.StatusInternalServerError:
			event, message = logger.Error(), "roster api request failed"
		case status >= fiber.StatusBadRequest:
			event, message = logger.Warn(), "roster api request rejected"
		}
		event.
			Str("correlation_id", GetCorrelationID(c)).
			Str("resource", resourceOf(path)).
			Str("route", route).
			Str("method", method).
			Int("status", status).
			Str("latency_bucket", latencyBucket(duration)).
			Dur("latency", duration).
			Msg(message)

		return err
	}
}

func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return route.Path
	}
	return c.Path()
}

// resourceOf names the top-level API resource: "/api/v1/students/7" is "students".
func resourceOf(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 3 {
		return "root"
	}
	return segments[2]
}

func isStreamRoute(route string) bool {
	return strings.HasSuffix(route, "/stream") || strings.HasSuffix(route, "/ws")
}

func latencyBucket(duration time.Duration) string {
	for _, bucket := range latencyBuckets {
		if duration <= bucket.limit {
			return bucket.label
		}
	}
	return ">2s"
}
