package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultHashCost   = bcrypt.DefaultCost
	minPasswordLength = 8
)

type AuthService struct {
	*base
	secret   []byte
	ttl      time.Duration
	hashCost int
}

// RegisterInput carries the profile fields only tutors use.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Role       models.Role
	Phone      *string
	Subjects   []string
	Bio        *string
	Experience int
	HourlyRate float64
	Available  *bool
}

// Account is a user together with the tutor profile, if any.
type Account struct {
	User    *models.User `json:"user"`
	Profile *TutorView   `json:"tutorProfile,omitempty"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case name == "":
		return nil, apperrors.Validation("name is required")
	case email == "":
		return nil, apperrors.Validation("email is required")
	case len(in.Password) < minPasswordLength:
		return nil, apperrors.Validation("weak password: use at least %d characters", minPasswordLength)
	case !in.Role.Valid():
		return nil, apperrors.Validation("role must be student or tutor")
	case in.Experience < 0:
		return nil, apperrors.Validation("experience cannot be negative")
	case in.HourlyRate < 0:
		return nil, apperrors.Validation("hourly rate cannot be negative")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     in.Role,
		Phone:    trimmedOrNil(in.Phone),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
			return apperrors.Internal(err)
		}
		if taken > 0 {
			return apperrors.Conflict("duplicate email")
		}

		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Conflict("duplicate email")
			}
			return apperrors.Internal(err)
		}

		if user.Role != models.RoleTutor {
			return nil
		}
		return createTutorProfile(tx, user.ID, in)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("user registered")
	if user.Role == models.RoleTutor {
		s.invalidateDirectory(ctx)
	}
	return &user, nil
}

func createTutorProfile(tx *gorm.DB, userID uuid.UUID, in RegisterInput) error {
	available := true
	if in.Available != nil {
		available = *in.Available
	}

	profile := models.TutorProfile{
		UserID:     userID,
		Bio:        trimmedOrNil(in.Bio),
		Experience: in.Experience,
		HourlyRate: in.HourlyRate,
		Available:  available,
	}
	if err := tx.Omit(clause.Associations).Create(&profile).Error; err != nil {
		return apperrors.Internal(err)
	}

	subjects := make([]models.TutorSubject, 0, len(in.Subjects))
	seen := make(map[string]bool, len(in.Subjects))
	for _, name := range in.Subjects {
		key := models.SubjectKey(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		subjects = append(subjects, models.TutorSubject{TutorID: userID, Key: key, Name: strings.TrimSpace(name)})
	}
	if len(subjects) == 0 {
		return nil
	}
	if err := tx.Create(&subjects).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// Authenticate checks credentials. Unknown email and wrong password give the
// same error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Auth("invalid email or password")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.Auth("invalid email or password")
	}
	return &user, nil
}

// IssueToken signs an HS256 token carrying user_id and role.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    string(user.Role),
		"exp":     s.now().Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return signed, nil
}

func (s *AuthService) Me(ctx context.Context, actor models.Actor) (*Account, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", actor.UserID()).Error; err != nil {
		return nil, storeError(err, "user")
	}

	account := &Account{User: &user}
	if user.Role == models.RoleTutor {
		view, err := (&TutorDirectoryService{base: s.base}).GetTutor(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		account.Profile = view
	}
	return account, nil
}
