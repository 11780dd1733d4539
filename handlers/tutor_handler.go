package handlers

import (
	"github.com/anjiri1684/tutor_connect/services"
	"github.com/gofiber/fiber/v2"
)

// ListTutors serves the public tutor directory.
func (h *Handler) ListTutors(c *fiber.Ctx) error {
	filter, err := services.ParseTutorFilter(c.Queries())
	if err != nil {
		return err
	}

	list, err := h.svc.Directory.ListTutors(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, list)
}

func (h *Handler) GetTutor(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	tutor, err := h.svc.Directory.GetTutor(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"tutor": tutor})
}
