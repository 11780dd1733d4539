package services

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AggregateService owns the derived tutor columns: rating, rating_count and
// total_sessions. They are rewritten from the sessions table, never edited.
type AggregateService struct {
	*base
}

type ratingAggregate struct {
	Avg   sql.NullFloat64
	Count int64
}

type TutorAggregate struct {
	Rating        *float64
	RatingCount   int
	TotalSessions int
}

// recomputeTutorRating stores the mean of all non-null student ratings of the
// tutor's bookings, or NULL when there are none.
func recomputeTutorRating(tx *gorm.DB, tutorID uuid.UUID) error {
	agg, err := loadRatingAggregate(tx, tutorID)
	if err != nil {
		return err
	}

	res := tx.Model(&models.TutorProfile{}).
		Where("user_id = ?", tutorID).
		Updates(map[string]any{"rating": nullableRating(agg), "rating_count": agg.Count})
	if res.Error != nil {
		return apperrors.Internal(res.Error)
	}
	return nil
}

func loadRatingAggregate(tx *gorm.DB, tutorID uuid.UUID) (ratingAggregate, error) {
	var agg ratingAggregate
	err := tx.Model(&models.Booking{}).
		Select("AVG(student_rating) AS avg, COUNT(student_rating) AS count").
		Where("tutor_id = ? AND student_rating IS NOT NULL", tutorID).
		Scan(&agg).Error
	if err != nil {
		return agg, apperrors.Internal(err)
	}
	return agg, nil
}

func nullableRating(agg ratingAggregate) *float64 {
	if !agg.Avg.Valid || agg.Count == 0 {
		return nil
	}
	v := agg.Avg.Float64
	return &v
}

// Recompute derives the aggregates of one tutor from scratch.
func (s *AggregateService) Recompute(ctx context.Context, tutorID uuid.UUID) (*TutorAggregate, error) {
	return computeAggregate(s.db.WithContext(ctx), tutorID)
}

func computeAggregate(tx *gorm.DB, tutorID uuid.UUID) (*TutorAggregate, error) {
	agg, err := loadRatingAggregate(tx, tutorID)
	if err != nil {
		return nil, err
	}

	var completed int64
	if err := tx.Model(&models.Booking{}).
		Where("tutor_id = ? AND status = ?", tutorID, string(models.BookingCompleted)).
		Count(&completed).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	return &TutorAggregate{
		Rating:        nullableRating(agg),
		RatingCount:   int(agg.Count),
		TotalSessions: int(completed),
	}, nil
}

// Reconcile rewrites every tutor profile whose stored aggregates drifted from
// the sessions table and returns how many were corrected.
func (s *AggregateService) Reconcile(ctx context.Context) (int, error) {
	var tutorIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.TutorProfile{}).Pluck("user_id", &tutorIDs).Error; err != nil {
		return 0, apperrors.Internal(err)
	}

	fixed := 0
	for _, id := range tutorIDs {
		drifted, err := s.reconcileTutor(ctx, id)
		if err != nil {
			return fixed, err
		}
		if drifted {
			fixed++
		}
	}

	if fixed > 0 {
		s.invalidateDirectory(ctx)
	}
	return fixed, nil
}

// reconcileTutor holds the profile row lock across the recompute and the
// write, so a completion or rating committing in between cannot be undone.
func (s *AggregateService) reconcileTutor(ctx context.Context, tutorID uuid.UUID) (bool, error) {
	drifted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.TutorProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "user_id = ?", tutorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return apperrors.Internal(err)
		}

		want, err := computeAggregate(tx, tutorID)
		if err != nil {
			return err
		}
		if !aggregateDrifted(p, want) {
			return nil
		}

		s.logger.Warn().
			Str("tutor_id", tutorID.String()).
			Int("stored_sessions", p.TotalSessions).
			Int("actual_sessions", want.TotalSessions).
			Int("stored_rating_count", p.RatingCount).
			Int("actual_rating_count", want.RatingCount).
			Msg("tutor aggregates drifted, rewriting")

		err = tx.Model(&models.TutorProfile{}).
			Where("user_id = ?", tutorID).
			Updates(map[string]any{
				"rating":         want.Rating,
				"rating_count":   want.RatingCount,
				"total_sessions": want.TotalSessions,
			}).Error
		if err != nil {
			return apperrors.Internal(err)
		}
		drifted = true
		return nil
	})
	return drifted, err
}

func aggregateDrifted(p models.TutorProfile, want *TutorAggregate) bool {
	if p.TotalSessions != want.TotalSessions || p.RatingCount != want.RatingCount {
		return true
	}
	if (p.Rating == nil) != (want.Rating == nil) {
		return true
	}
	return p.Rating != nil && math.Abs(*p.Rating-*want.Rating) > 1e-9
}
