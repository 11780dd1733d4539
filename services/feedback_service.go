package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/events"
	"github.com/anjiri1684/tutor_connect/metrics"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedbackService handles the two once-only writes on a completed booking:
// the student's rating of the tutor and the tutor's feedback for the student.
type FeedbackService struct {
	*base
}

type TutorFeedbackInput struct {
	Rating       int
	Strengths    *string
	Improvements *string
	Notes        string
}

func (s *FeedbackService) SubmitStudentRating(ctx context.Context, student models.Student, bookingID uuid.UUID, rating int, comment *string) (*models.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}

	var booking models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			return storeError(err, "booking")
		}
		if booking.StudentID != student.ID {
			return apperrors.Forbidden("only the booking's student can rate it")
		}
		if err := ratable(&booking); err != nil {
			return err
		}

		now := s.now()
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ? AND student_rating IS NULL", bookingID, string(models.BookingCompleted)).
			Updates(map[string]any{
				"student_rating":  rating,
				"student_comment": trimmedOrNil(comment),
				"rated_at":        now,
				"updated_at":      now,
			})
		if res.Error != nil {
			return apperrors.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
				return storeError(err, "booking")
			}
			if err := ratable(&booking); err != nil {
				return err
			}
			return apperrors.AlreadyRated("booking has already been rated")
		}

		if err := recomputeTutorRating(tx, booking.TutorID); err != nil {
			return err
		}
		return storeError(tx.Preload("TutorFeedback").First(&booking, "id = ?", bookingID).Error, "booking")
	})
	if err != nil {
		return nil, err
	}

	metrics.IncTransition("rate", string(booking.Status))
	s.logger.Info().
		Str("booking_id", booking.ID.String()).
		Str("tutor_id", booking.TutorID.String()).
		Int("rating", rating).
		Msg("student rating recorded")

	s.invalidateDirectory(ctx)
	s.publish(events.EventBookingRated, booking.ID.String(), bookingPayload(&booking, student))
	return &booking, nil
}

func (s *FeedbackService) SubmitTutorFeedback(ctx context.Context, tutor models.Tutor, bookingID uuid.UUID, in TutorFeedbackInput) (*models.Booking, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}
	notes := strings.TrimSpace(in.Notes)
	if notes == "" {
		return nil, apperrors.Validation("notes are required")
	}

	var booking models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&booking, "id = ?", bookingID).Error; err != nil {
			return storeError(err, "booking")
		}
		if booking.TutorID != tutor.ID {
			return apperrors.Forbidden("only the booking's tutor can leave feedback")
		}
		if booking.Status != models.BookingCompleted {
			return apperrors.NotCompleted("feedback requires a completed booking, this one is " + string(booking.Status))
		}

		var existing int64
		if err := tx.Model(&models.Feedback{}).Where("session_id = ?", bookingID).Count(&existing).Error; err != nil {
			return apperrors.Internal(err)
		}
		if existing > 0 {
			return apperrors.AlreadyRated("tutor feedback has already been submitted")
		}

		feedback := models.Feedback{
			SessionID:    booking.ID,
			TutorID:      booking.TutorID,
			StudentID:    booking.StudentID,
			Rating:       in.Rating,
			Strengths:    trimmedOrNil(in.Strengths),
			Improvements: trimmedOrNil(in.Improvements),
			Notes:        notes,
			CreatedAt:    s.now(),
		}
		if err := tx.Create(&feedback).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.AlreadyRated("tutor feedback has already been submitted")
			}
			return apperrors.Internal(err)
		}

		return storeError(tx.Preload("TutorFeedback").First(&booking, "id = ?", bookingID).Error, "booking")
	})
	if err != nil {
		return nil, err
	}

	metrics.IncTransition("tutor_feedback", string(booking.Status))
	s.logger.Info().Str("booking_id", booking.ID.String()).Msg("tutor feedback recorded")
	s.publish(events.EventFeedbackSubmitted, booking.ID.String(), bookingPayload(&booking, tutor))
	return &booking, nil
}

func ratable(b *models.Booking) error {
	if b.Status != models.BookingCompleted {
		return apperrors.NotCompleted("only completed bookings can be rated, this one is " + string(b.Status))
	}
	if b.StudentRating != nil {
		return apperrors.AlreadyRated("booking has already been rated")
	}
	return nil
}
