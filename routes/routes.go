package routes

import (
	"github.com/anjiri1684/tutor_connect/handlers"
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/gofiber/fiber/v2"
)

// Options carries what the route groups need beyond the handler itself.
type Options struct {
	JWTSecret string
	Limiter   *middleware.RateLimiter
}

// Setup mounts every route group on app.
func Setup(app *fiber.App, h *handlers.Handler, opts Options) {
	PublicRoutes(app, h)
	AuthRoutes(app, h, opts.Limiter)
	ProfileRoutes(app, h, opts.JWTSecret)
	BookingRoutes(app, h, opts.JWTSecret)
	DoubtRoutes(app, h, opts.JWTSecret)
}
