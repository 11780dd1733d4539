package routes

import (
	"github.com/anjiri1684/tutor_connect/handlers"
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	booking := app.Group("/bookings", middleware.Protected(secret))
	booking.Post("", h.CreateBooking)
	booking.Get("", h.ListBookings)
	booking.Get("/:id", h.GetBooking)
	booking.Post("/:id/cancel", h.CancelBooking)
	booking.Post("/:id/rating", middleware.StudentRequired(), h.RateBooking)

	booking.Post("/:id/accept", middleware.TutorRequired(), h.AcceptBooking)
	booking.Post("/:id/reject", middleware.TutorRequired(), h.RejectBooking)
	booking.Post("/:id/complete", middleware.TutorRequired(), h.CompleteBooking)
	booking.Post("/:id/tutor-feedback", middleware.TutorRequired(), h.SubmitTutorFeedback)
}
