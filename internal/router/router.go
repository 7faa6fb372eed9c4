package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/promata/reservas-gateway/internal/config"
	"github.com/promata/reservas-gateway/internal/handler"
	"github.com/promata/reservas-gateway/internal/middleware"
	"github.com/promata/reservas-gateway/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ExperienceHandler  *handler.ExperienceHandler
	HighlightHandler   *handler.HighlightHandler
	ReservationHandler *handler.ReservationHandler
	RequestHandler     *handler.RequestHandler
	UserHandler        *handler.UserHandler
	CartHandler        *handler.CartHandler
	AddressHandler     *handler.AddressHandler
	HealthProbes       map[string]handler.Pinger
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	authenticated := middleware.WithAuth(func(c *fiber.Ctx) error { return c.Next() }, middleware.AuthOptions{RequireUser: true})
	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole("admin", "root"))

	if deps.ExperienceHandler != nil {
		deps.ExperienceHandler.Register(api.Group("/experiences"))
		deps.ExperienceHandler.RegisterAdmin(admin.Group("/experiences"))
	}

	if deps.HighlightHandler != nil {
		deps.HighlightHandler.Register(api.Group("/highlights"))
		deps.HighlightHandler.RegisterAdmin(admin.Group("/highlights"))
	}

	if deps.AddressHandler != nil {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		deps.AddressHandler.Register(api.Group("/address", middleware.RateLimit("address", cfg.RateLimitMax, window)))
	}

	me := api.Group("/me", jwtMiddleware, authenticated)

	if deps.UserHandler != nil {
		deps.UserHandler.Register(me)
		deps.UserHandler.RegisterAdmin(admin.Group("/users"))
	}

	if deps.ReservationHandler != nil {
		deps.ReservationHandler.RegisterMine(me.Group("/reservations"))
		deps.ReservationHandler.Register(api.Group("/reservations", jwtMiddleware, authenticated))
		deps.ReservationHandler.RegisterAdmin(admin.Group("/reservation-groups"))
	}

	if deps.RequestHandler != nil {
		deps.RequestHandler.Register(admin.Group("/requests"))
		deps.RequestHandler.RegisterProfessors(admin.Group("/professors"))
	}

	if deps.CartHandler != nil {
		deps.CartHandler.Register(api.Group("/cart", jwtMiddleware, authenticated))
	}
}
