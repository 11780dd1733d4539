package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if appErr, ok := apperrors.As(err); ok {
				code = appErr.StatusCode()
			} else if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).SendString(err.Error())
		},
	})
}

func sign(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func get(t *testing.T, app *fiber.App, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestProtectedResolvesActor(t *testing.T) {
	app := newApp()
	app.Get("/me", Protected(secret), func(c *fiber.Ctx) error {
		actor, err := CurrentActor(c)
		if err != nil {
			return err
		}
		return c.SendString(string(actor.Role()) + ":" + actor.UserID().String())
	})
	app.Get("/tutor-only", Protected(secret), TutorRequired(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	id := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()
	studentToken := sign(t, jwt.MapClaims{"user_id": id.String(), "role": "student", "exp": exp}, secret)
	tutorToken := sign(t, jwt.MapClaims{"user_id": id.String(), "role": "tutor", "exp": exp}, secret)

	status, body := get(t, app, "/me", studentToken)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "student:"+id.String(), body)

	status, _ = get(t, app, "/tutor-only", studentToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = get(t, app, "/tutor-only", tutorToken)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestProtectedRejectsBadTokens(t *testing.T) {
	app := newApp()
	app.Get("/me", Protected(secret), func(c *fiber.Ctx) error { return c.SendString("ok") })

	exp := time.Now().Add(time.Hour).Unix()
	cases := map[string]string{
		"missing":      "",
		"wrong key":    sign(t, jwt.MapClaims{"user_id": uuid.NewString(), "role": "student", "exp": exp}, "other"),
		"expired":      sign(t, jwt.MapClaims{"user_id": uuid.NewString(), "role": "student", "exp": time.Now().Add(-time.Hour).Unix()}, secret),
		"unknown role": sign(t, jwt.MapClaims{"user_id": uuid.NewString(), "role": "admin", "exp": exp}, secret),
		"bad subject":  sign(t, jwt.MapClaims{"user_id": "42", "role": "student", "exp": exp}, secret),
	}
	for name, token := range cases {
		status, _ := get(t, app, "/me", token)
		assert.Equal(t, fiber.StatusUnauthorized, status, name)
	}
}

func TestCurrentCapabilities(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals(actorKey, models.Actor(models.Student{ID: uuid.New()}))
		if _, err := CurrentStudent(c); err != nil {
			return err
		}
		_, err := CurrentTutor(c)
		return err
	})

	status, _ := get(t, app, "/", "")
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	assert.True(t, limiter.Allow("1.2.3.4"))
	assert.True(t, limiter.Allow("1.2.3.4"))
	assert.False(t, limiter.Allow("1.2.3.4"))
	assert.True(t, limiter.Allow("5.6.7.8"), "buckets are per client")

	app := newApp()
	app.Post("/login", NewRateLimiter(0.001, 1).Handler(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	first, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, first.StatusCode)

	second, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, second.StatusCode)
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	limiter := NewRateLimiter(1, 1)
	limiter.idleTTL = time.Minute
	limiter.now = func() time.Time { return clock }

	countBuckets := func() int {
		n := 0
		limiter.buckets.Range(func(_, _ any) bool { n++; return true })
		return n
	}

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.Equal(t, 2, countBuckets())

	clock = clock.Add(2 * time.Minute)
	assert.True(t, limiter.Allow("10.0.0.3"))
	assert.Equal(t, 1, countBuckets(), "idle clients are dropped")

	assert.True(t, limiter.Allow("10.0.0.1"), "a returning client starts with a full bucket")
}

func TestRateLimiterIdleCoversRefill(t *testing.T) {
	assert.Equal(t, defaultIdleTTL, NewRateLimiter(1, 5).idleTTL)
	assert.Equal(t, 2000*time.Second, NewRateLimiter(0.001, 2).idleTTL)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	app := newApp()
	app.Use(RequestLogger(&logger))
	app.Get("/bookings/:id", func(c *fiber.Ctx) error {
		return apperrors.NotFound("booking")
	})

	req := httptest.NewRequest("GET", "/bookings/123", nil)
	req.Header.Set(requestIDHeader, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "req-1", resp.Header.Get(requestIDHeader))
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"route":"/bookings/:id"`)
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
}
