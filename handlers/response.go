package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var validate = validator.New()

// envelope is the body of every response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(envelope{Success: true, Data: data})
}

// ErrorHandler renders every error as an envelope. Internal causes are logged
// and never sent to the client.
func ErrorHandler(logger *zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if appErr, ok := apperrors.As(err); ok {
			metrics.IncError(string(appErr.Kind))
			if appErr.Kind == apperrors.KindInternal {
				logger.Error().Err(appErr.Err).Str("path", c.Path()).Str("method", c.Method()).Msg("internal error")
			}
			return c.Status(appErr.StatusCode()).JSON(envelope{
				Message: appErr.Message,
				Code:    string(appErr.Kind),
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(envelope{Message: fiberErr.Message})
		}

		metrics.IncError(string(apperrors.KindInternal))
		logger.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("unhandled error")
		return c.Status(fiber.StatusInternalServerError).JSON(envelope{
			Message: "internal server error",
			Code:    string(apperrors.KindInternal),
		})
	}
}

// parseBody decodes and validates a JSON request body.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.Validation("cannot parse JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		return apperrors.Validation("%s", validationMessage(err))
	}
	return nil
}

// parseOptionalBody is parseBody for endpoints whose body may be empty.
func parseOptionalBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return parseBody(c, dst)
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", field, fe.Param()))
		case "uuid":
			msgs = append(msgs, field+" must be a valid id")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s %s", field, fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func pathID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation("%s is not a valid id", name)
	}
	return id, nil
}

func optionalID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, apperrors.Validation("%s is not a valid id", field)
	}
	return &id, nil
}
