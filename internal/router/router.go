package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/siswa-api/internal/config"
	"github.com/noah-isme/siswa-api/internal/handler"
	"github.com/noah-isme/siswa-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler   *handler.StudentHandler
	SeedHandler      *handler.SeedHandler
	SettingsHandler  *handler.SettingsHandler
	AssistantHandler *handler.AssistantHandler
	AssistantLimiter fiber.Handler
	SessionLimiter   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students"))
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	if deps.SettingsHandler != nil {
		deps.SettingsHandler.Register(api.Group("/settings"))
	}

	if deps.AssistantHandler != nil {
		deps.AssistantHandler.Register(api.Group("/assistant"), deps.AssistantLimiter, deps.SessionLimiter)
	}
}
