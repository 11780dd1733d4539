package handlers

import (
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/anjiri1684/tutor_connect/services"
	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	Name       string   `json:"name" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required"`
	Role       string   `json:"role" validate:"required,oneof=student tutor"`
	Phone      *string  `json:"phone,omitempty"`
	Subjects   []string `json:"subjects,omitempty"`
	Bio        *string  `json:"bio,omitempty"`
	Experience int      `json:"experience,omitempty" validate:"gte=0"`
	HourlyRate float64  `json:"hourlyRate,omitempty" validate:"gte=0"`
	Available  *bool    `json:"available,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.svc.Auth.Register(c.UserContext(), services.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       models.Role(req.Role),
		Phone:      req.Phone,
		Subjects:   req.Subjects,
		Bio:        req.Bio,
		Experience: req.Experience,
		HourlyRate: req.HourlyRate,
		Available:  req.Available,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, fiber.Map{"user": user})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.svc.Auth.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	token, err := h.svc.Auth.IssueToken(user)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"user": user, "token": token})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return err
	}

	account, err := h.svc.Auth.Me(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, account)
}
