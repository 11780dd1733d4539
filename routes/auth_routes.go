package routes

import (
	"github.com/anjiri1684/tutor_connect/handlers"
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App, h *handlers.Handler, limiter *middleware.RateLimiter) {
	if limiter == nil {
		app.Post("/register", h.Register)
		app.Post("/login", h.Login)
		return
	}
	app.Post("/register", limiter.Handler(), h.Register)
	app.Post("/login", limiter.Handler(), h.Login)
}
