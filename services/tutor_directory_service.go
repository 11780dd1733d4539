package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/metrics"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SortByRating        = "rating"
	SortByExperience    = "experience"
	SortByTotalSessions = "totalSessions"

	DefaultTutorLimit = 50
	MaxTutorLimit     = 100
)

// TutorDirectoryService is the read side over tutor profiles.
type TutorDirectoryService struct {
	*base
}

// TutorFilter narrows the directory. Nil fields do not filter.
type TutorFilter struct {
	Subject       string
	MinRating     *float64
	MinExperience *int
	MaxHourlyRate *float64
	Available     *bool
	Sort          string
	Limit         int
}

type TutorView struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         *string   `json:"phone,omitempty"`
	Subjects      []string  `json:"subjects"`
	Bio           *string   `json:"bio,omitempty"`
	Experience    int       `json:"experience"`
	HourlyRate    float64   `json:"hourlyRate"`
	Available     bool      `json:"available"`
	Rating        *float64  `json:"rating"`
	RatingCount   int       `json:"ratingCount"`
	TotalSessions int       `json:"totalSessions"`
}

type TutorList struct {
	Tutors []TutorView `json:"tutors"`
	Count  int         `json:"count"`
}

// ParseTutorFilter reads the directory query parameters. Malformed numbers
// are rejected rather than ignored.
func ParseTutorFilter(query map[string]string) (TutorFilter, error) {
	f := TutorFilter{
		Subject: strings.TrimSpace(query["subject"]),
		Sort:    strings.TrimSpace(query["sort"]),
	}

	if v := strings.TrimSpace(query["min_rating"]); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, apperrors.Validation("min_rating must be a number")
		}
		f.MinRating = &n
	}
	if v := strings.TrimSpace(query["min_experience"]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, apperrors.Validation("min_experience must be a whole number")
		}
		f.MinExperience = &n
	}
	if v := strings.TrimSpace(query["max_rate"]); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, apperrors.Validation("max_rate must be a number")
		}
		f.MaxHourlyRate = &n
	}
	if v := strings.TrimSpace(query["available"]); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, apperrors.Validation("available must be true or false")
		}
		f.Available = &b
	}
	if v := strings.TrimSpace(query["limit"]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, apperrors.Validation("limit must be a whole number")
		}
		f.Limit = n
	}

	return f.normalize()
}

func (f TutorFilter) normalize() (TutorFilter, error) {
	switch strings.ToLower(f.Sort) {
	case "", strings.ToLower(SortByRating):
		f.Sort = SortByRating
	case strings.ToLower(SortByExperience):
		f.Sort = SortByExperience
	case strings.ToLower(SortByTotalSessions), "total_sessions":
		f.Sort = SortByTotalSessions
	default:
		return f, apperrors.Validation("sort must be one of rating, experience, totalSessions")
	}

	switch {
	case f.Limit == 0:
		f.Limit = DefaultTutorLimit
	case f.Limit < 0:
		return f, apperrors.Validation("limit must be positive")
	case f.Limit > MaxTutorLimit:
		f.Limit = MaxTutorLimit
	}
	return f, nil
}

// cacheKey is stable for equal filters.
func (f TutorFilter) cacheKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "subject=%s|sort=%s|limit=%d", models.SubjectKey(f.Subject), f.Sort, f.Limit)
	if f.MinRating != nil {
		fmt.Fprintf(&b, "|min_rating=%g", *f.MinRating)
	}
	if f.MinExperience != nil {
		fmt.Fprintf(&b, "|min_experience=%d", *f.MinExperience)
	}
	if f.MaxHourlyRate != nil {
		fmt.Fprintf(&b, "|max_rate=%g", *f.MaxHourlyRate)
	}
	if f.Available != nil {
		fmt.Fprintf(&b, "|available=%t", *f.Available)
	}
	return b.String()
}

func (s *TutorDirectoryService) ListTutors(ctx context.Context, filter TutorFilter) (*TutorList, error) {
	f, err := filter.normalize()
	if err != nil {
		return nil, err
	}

	key := f.cacheKey()
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		var cached TutorList
		found, g, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn().Err(err).Msg("tutor directory cache read failed")
		}
		metrics.IncCache(found)
		if found {
			return &cached, nil
		}
		gen, cacheable = g, err == nil
	}

	q := s.db.WithContext(ctx).
		Model(&models.TutorProfile{}).
		Select("tutor_profiles.*").
		Joins("JOIN users ON users.id = tutor_profiles.user_id").
		Where("users.role = ?", string(models.RoleTutor))

	if f.Subject != "" {
		q = q.Where("EXISTS (SELECT 1 FROM tutor_subjects ts WHERE ts.tutor_id = tutor_profiles.user_id AND ts.subject_key = ?)",
			models.SubjectKey(f.Subject))
	}
	if f.MinRating != nil && *f.MinRating > 0 {
		q = q.Where("tutor_profiles.rating >= ?", *f.MinRating)
	}
	if f.MinExperience != nil {
		q = q.Where("tutor_profiles.experience >= ?", *f.MinExperience)
	}
	if f.MaxHourlyRate != nil {
		q = q.Where("tutor_profiles.hourly_rate <= ?", *f.MaxHourlyRate)
	}
	if f.Available != nil {
		q = q.Where("tutor_profiles.available = ?", *f.Available)
	}

	var profiles []models.TutorProfile
	err = applyTutorSort(q, f.Sort).
		Preload("User").
		Preload("Subjects", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Limit(f.Limit).
		Find(&profiles).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	list := &TutorList{Tutors: make([]TutorView, 0, len(profiles))}
	for i := range profiles {
		list.Tutors = append(list.Tutors, toTutorView(&profiles[i]))
	}
	list.Count = len(list.Tutors)

	if cacheable {
		if err := s.cache.Set(ctx, key, gen, list); err != nil {
			s.logger.Warn().Err(err).Msg("tutor directory cache write failed")
		}
	}
	return list, nil
}

func (s *TutorDirectoryService) GetTutor(ctx context.Context, id uuid.UUID) (*TutorView, error) {
	var profile models.TutorProfile
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Subjects", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		First(&profile, "user_id = ?", id).Error
	if err != nil {
		return nil, storeError(err, "tutor")
	}

	view := toTutorView(&profile)
	return &view, nil
}

// Unrated tutors sort after every rated one regardless of direction.
func applyTutorSort(q *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortByExperience:
		q = q.Order("tutor_profiles.experience DESC")
	case SortByTotalSessions:
		q = q.Order("tutor_profiles.total_sessions DESC")
	default:
		q = q.Order("CASE WHEN tutor_profiles.rating IS NULL THEN 1 ELSE 0 END").
			Order("tutor_profiles.rating DESC")
	}
	return q.Order("users.name ASC")
}

func toTutorView(p *models.TutorProfile) TutorView {
	return TutorView{
		ID:            p.UserID,
		Name:          p.User.Name,
		Email:         p.User.Email,
		Phone:         p.User.Phone,
		Subjects:      p.SubjectNames(),
		Bio:           p.Bio,
		Experience:    p.Experience,
		HourlyRate:    p.HourlyRate,
		Available:     p.Available,
		Rating:        p.Rating,
		RatingCount:   p.RatingCount,
		TotalSessions: p.TotalSessions,
	}
}
