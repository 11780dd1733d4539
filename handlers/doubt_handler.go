package handlers

import (
	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/anjiri1684/tutor_connect/services"
	"github.com/gofiber/fiber/v2"
)

type SubmitDoubtRequest struct {
	StudentID *string `json:"studentId,omitempty"`
	TutorID   string  `json:"tutorId" validate:"required,uuid"`
	Subject   string  `json:"subject" validate:"required"`
	Question  string  `json:"question" validate:"required"`
	Urgency   string  `json:"urgency,omitempty"`
}

type ReplyRequest struct {
	Reply string `json:"reply"`
}

func (h *Handler) SubmitDoubt(c *fiber.Ctx) error {
	student, err := middleware.CurrentStudent(c)
	if err != nil {
		return err
	}

	var req SubmitDoubtRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	// studentId is accepted for compatibility but must name the caller.
	claimed, err := optionalID(req.StudentID, "studentId")
	if err != nil {
		return err
	}
	if claimed != nil && *claimed != student.ID {
		return apperrors.Forbidden("cannot submit a doubt on behalf of another student")
	}
	tutorID, err := optionalID(&req.TutorID, "tutorId")
	if err != nil {
		return err
	}

	doubt, err := h.svc.Doubts.Submit(c.UserContext(), student, services.SubmitDoubtInput{
		TutorID:  *tutorID,
		Subject:  req.Subject,
		Question: req.Question,
		Urgency:  req.Urgency,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, fiber.Map{"doubt": doubt})
}

func (h *Handler) ReplyDoubt(c *fiber.Ctx) error {
	tutor, err := middleware.CurrentTutor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req ReplyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	doubt, err := h.svc.Doubts.Reply(c.UserContext(), tutor, id, req.Reply)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"doubt": doubt})
}

func (h *Handler) ListDoubts(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return err
	}

	doubts, err := h.svc.Doubts.List(c.UserContext(), actor, c.Query("status"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"doubts": doubts, "count": len(doubts)})
}
