package handlers

import "github.com/gofiber/fiber/v2"

func (h *Handler) Health(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, fiber.Map{"status": "ok"})
}
