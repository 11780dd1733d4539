package routes

import (
	"github.com/anjiri1684/tutor_connect/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App, h *handlers.Handler) {
	app.Get("/health", h.Health)

	tutors := app.Group("/tutors")
	tutors.Get("", h.ListTutors)
	tutors.Get("/:id", h.GetTutor)
}
