package middleware

import (
	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const actorKey = "actor"

// Protected verifies the bearer token and stores the caller as a typed actor.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(secret),
		SigningMethod:  "HS256",
		ErrorHandler:   jwtError,
		SuccessHandler: resolveActor,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return apperrors.Auth("missing or malformed JWT")
	}
	return apperrors.Auth("invalid or expired JWT")
}

func resolveActor(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return apperrors.Auth("missing token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return apperrors.Auth("invalid token claims")
	}

	rawID, _ := claims["user_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return apperrors.Auth("invalid token subject")
	}
	role, _ := claims["role"].(string)

	actor, ok := models.NewActor(id, models.Role(role))
	if !ok {
		return apperrors.Auth("invalid token role")
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// CurrentActor returns the caller resolved by Protected.
func CurrentActor(c *fiber.Ctx) (models.Actor, error) {
	actor, ok := c.Locals(actorKey).(models.Actor)
	if !ok {
		return nil, apperrors.Auth("not authenticated")
	}
	return actor, nil
}

// CurrentTutor returns the caller's tutor capability, or Forbidden.
func CurrentTutor(c *fiber.Ctx) (models.Tutor, error) {
	actor, err := CurrentActor(c)
	if err != nil {
		return models.Tutor{}, err
	}
	tutor, ok := actor.(models.Tutor)
	if !ok {
		return models.Tutor{}, apperrors.Forbidden("tutor access required")
	}
	return tutor, nil
}

// CurrentStudent returns the caller's student capability, or Forbidden.
func CurrentStudent(c *fiber.Ctx) (models.Student, error) {
	actor, err := CurrentActor(c)
	if err != nil {
		return models.Student{}, err
	}
	student, ok := actor.(models.Student)
	if !ok {
		return models.Student{}, apperrors.Forbidden("student access required")
	}
	return student, nil
}

func TutorRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := CurrentTutor(c); err != nil {
			return err
		}
		return c.Next()
	}
}

func StudentRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := CurrentStudent(c); err != nil {
			return err
		}
		return c.Next()
	}
}
