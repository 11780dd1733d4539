package routes

import (
	"github.com/anjiri1684/tutor_connect/handlers"
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/gofiber/fiber/v2"
)

func DoubtRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	doubts := app.Group("/doubts", middleware.Protected(secret))
	doubts.Post("", middleware.StudentRequired(), h.SubmitDoubt)
	doubts.Get("", h.ListDoubts)
	doubts.Post("/:id/reply", middleware.TutorRequired(), h.ReplyDoubt)
}
