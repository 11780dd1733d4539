package services

import (
	"context"
	"testing"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Auth.Register(ctx, RegisterInput{
		Name:     "Sam Student",
		Email:    "  Sam@Example.com ",
		Password: "correct horse",
		Role:     models.RoleStudent,
		Phone:    strPtr("+254700000000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.Password)

	got, err := f.svc.Auth.Authenticate(ctx, "SAM@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, models.RoleStudent, got.Role)

	_, err = f.svc.Auth.Authenticate(ctx, "sam@example.com", "wrong password")
	assert.True(t, apperrors.Is(err, apperrors.KindAuth), "got %v", err)

	_, err = f.svc.Auth.Authenticate(ctx, "nobody@example.com", "correct horse")
	assert.True(t, apperrors.Is(err, apperrors.KindAuth), "got %v", err)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.student(t, "taken")

	tests := []struct {
		name string
		in   RegisterInput
		kind apperrors.Kind
	}{
		{"weak password", RegisterInput{Name: "a", Email: "a@example.com", Password: "short", Role: models.RoleStudent}, apperrors.KindValidation},
		{"bad role", RegisterInput{Name: "a", Email: "a@example.com", Password: "password123", Role: "admin"}, apperrors.KindValidation},
		{"missing name", RegisterInput{Email: "a@example.com", Password: "password123", Role: models.RoleStudent}, apperrors.KindValidation},
		{"negative rate", RegisterInput{Name: "a", Email: "a@example.com", Password: "password123", Role: models.RoleTutor, HourlyRate: -1}, apperrors.KindValidation},
		{"duplicate email", RegisterInput{Name: "a", Email: "TAKEN@example.com", Password: "password123", Role: models.RoleStudent}, apperrors.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Auth.Register(ctx, tt.in)
			assert.True(t, apperrors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestRegisterTutorCreatesProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Auth.Register(ctx, RegisterInput{
		Name:       "Tina Tutor",
		Email:      "tina@example.com",
		Password:   "password123",
		Role:       models.RoleTutor,
		Subjects:   []string{"Physics", " physics ", "Chemistry", ""},
		Bio:        strPtr("Ten years of lab work"),
		Experience: 10,
		HourlyRate: 35,
	})
	require.NoError(t, err)

	account, err := f.svc.Auth.Me(ctx, models.Tutor{ID: user.ID})
	require.NoError(t, err)
	require.NotNil(t, account.Profile)
	assert.Equal(t, []string{"Chemistry", "Physics"}, account.Profile.Subjects)
	assert.True(t, account.Profile.Available)
	assert.Nil(t, account.Profile.Rating)
	assert.Equal(t, 0, account.Profile.TotalSessions)

	student := f.student(t, "sam")
	account, err = f.svc.Auth.Me(ctx, student)
	require.NoError(t, err)
	assert.Nil(t, account.Profile)
}

func TestIssueToken(t *testing.T) {
	f := newFixture(t)
	user, err := f.svc.Auth.Register(context.Background(), RegisterInput{
		Name: "Sam", Email: "sam@example.com", Password: "password123", Role: models.RoleStudent,
	})
	require.NoError(t, err)

	signed, err := f.svc.Auth.IssueToken(user)
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims["user_id"])
	assert.Equal(t, "student", claims["role"])
	assert.Equal(t, jwt.SigningMethodHS256.Alg(), token.Method.Alg())
}
