package handlers

import (
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/anjiri1684/tutor_connect/services"
	"github.com/gofiber/fiber/v2"
)

type CreateBookingRequest struct {
	StudentID *string  `json:"studentId,omitempty"`
	TutorID   *string  `json:"tutorId,omitempty"`
	Subject   string   `json:"subject" validate:"required"`
	Topic     *string  `json:"topic,omitempty"`
	Date      string   `json:"date" validate:"required"`
	Time      string   `json:"time" validate:"required"`
	Duration  int      `json:"duration" validate:"required"`
	Rate      *float64 `json:"rate,omitempty"`
	Level     *string  `json:"level,omitempty"`
	Message   *string  `json:"message,omitempty"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type RatingRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment,omitempty"`
}

type TutorFeedbackRequest struct {
	Rating       int     `json:"rating"`
	Strengths    *string `json:"strengths,omitempty"`
	Improvements *string `json:"improvements,omitempty"`
	Notes        string  `json:"notes"`
}

func (h *Handler) CreateBooking(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return err
	}

	var req CreateBookingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	studentID, err := optionalID(req.StudentID, "studentId")
	if err != nil {
		return err
	}
	tutorID, err := optionalID(req.TutorID, "tutorId")
	if err != nil {
		return err
	}

	booking, err := h.svc.Bookings.Create(c.UserContext(), actor, services.CreateBookingInput{
		StudentID: studentID,
		TutorID:   tutorID,
		Subject:   req.Subject,
		Topic:     req.Topic,
		Date:      req.Date,
		Time:      req.Time,
		Duration:  req.Duration,
		Rate:      req.Rate,
		Level:     req.Level,
		Message:   req.Message,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, fiber.Map{"booking": booking})
}

func (h *Handler) ListBookings(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return err
	}

	bookings, err := h.svc.Bookings.List(c.UserContext(), actor, c.Query("status"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"bookings": bookings, "count": len(bookings)})
}

func (h *Handler) GetBooking(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	booking, err := h.svc.Bookings.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"booking": booking})
}

func (h *Handler) AcceptBooking(c *fiber.Ctx) error {
	tutor, err := middleware.CurrentTutor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	booking, err := h.svc.Bookings.Accept(c.UserContext(), tutor, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"booking": booking})
}

func (h *Handler) RejectBooking(c *fiber.Ctx) error {
	tutor, err := middleware.CurrentTutor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req ReasonRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}

	booking, err := h.svc.Bookings.Reject(c.UserContext(), tutor, id, req.Reason)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"booking": booking})
}

func (h *Handler) CancelBooking(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req ReasonRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}

	booking, err := h.svc.Bookings.Cancel(c.UserContext(), actor, id, req.Reason)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"booking": booking})
}

func (h *Handler) CompleteBooking(c *fiber.Ctx) error {
	tutor, err := middleware.CurrentTutor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	booking, err := h.svc.Bookings.Complete(c.UserContext(), tutor, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"booking": booking})
}

// RateBooking records the student's rating of the tutor for a completed session.
func (h *Handler) RateBooking(c *fiber.Ctx) error {
	student, err := middleware.CurrentStudent(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req RatingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	booking, err := h.svc.Feedback.SubmitStudentRating(c.UserContext(), student, id, req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"booking": booking})
}

func (h *Handler) SubmitTutorFeedback(c *fiber.Ctx) error {
	tutor, err := middleware.CurrentTutor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req TutorFeedbackRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	booking, err := h.svc.Feedback.SubmitTutorFeedback(c.UserContext(), tutor, id, services.TutorFeedbackInput{
		Rating:       req.Rating,
		Strengths:    req.Strengths,
		Improvements: req.Improvements,
		Notes:        req.Notes,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"booking": booking})
}
