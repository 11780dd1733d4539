package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/events"
	"github.com/anjiri1684/tutor_connect/metrics"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/anjiri1684/tutor_connect/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingService struct {
	*base
}

// CreateBookingInput is a booking request. A student books for themself and
// names the tutor; a tutor books for themself and names the student.
type CreateBookingInput struct {
	StudentID *uuid.UUID
	TutorID   *uuid.UUID
	Subject   string
	Topic     *string
	Date      string
	Time      string
	Duration  int
	Rate      *float64
	Level     *string
	Message   *string
}

func (s *BookingService) Create(ctx context.Context, actor models.Actor, in CreateBookingInput) (*models.Booking, error) {
	studentID, tutorID, err := bookingParties(actor, in)
	if err != nil {
		return nil, err
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, apperrors.Validation("subject is required")
	}
	if in.Duration <= 0 {
		return nil, apperrors.Validation("duration must be a positive number of minutes")
	}
	if in.Rate != nil && *in.Rate < 0 {
		return nil, apperrors.Validation("rate cannot be negative")
	}
	date, err := utils.NormalizeDate(in.Date)
	if err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}
	clock, err := utils.NormalizeClock(in.Time)
	if err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}

	origin := OriginFor(actor.Role())
	booking := models.Booking{
		StudentID: studentID,
		TutorID:   tutorID,
		Subject:   subject,
		Topic:     trimmedOrNil(in.Topic),
		Date:      date,
		Time:      clock,
		Duration:  in.Duration,
		Level:     trimmedOrNil(in.Level),
		Message:   trimmedOrNil(in.Message),
		Status:    InitialStatus(origin),
		Origin:    origin,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The profile row lock serializes concurrent bookings for one tutor.
		var profile models.TutorProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&profile, "user_id = ?", tutorID).Error; err != nil {
			return storeError(err, "tutor")
		}
		if origin == models.OriginStudent && !profile.Available {
			return apperrors.Conflict("tutor is not accepting bookings")
		}

		var student models.User
		if err := tx.First(&student, "id = ?", studentID).Error; err != nil {
			return storeError(err, "student")
		}
		if student.Role != models.RoleStudent {
			return apperrors.Validation("studentId does not reference a student")
		}

		var clashes int64
		if err := tx.Model(&models.Booking{}).
			Where("tutor_id = ? AND date = ? AND time = ? AND status IN ?", tutorID, date, clock,
				[]string{string(models.BookingPending), string(models.BookingConfirmed)}).
			Count(&clashes).Error; err != nil {
			return storeError(err, "booking")
		}
		if clashes > 0 {
			return apperrors.Conflict(fmt.Sprintf("tutor already has a booking on %s at %s", date, clock))
		}

		booking.Rate = profile.HourlyRate
		if in.Rate != nil {
			booking.Rate = *in.Rate
		}
		return storeError(tx.Create(&booking).Error, "booking")
	})
	if err != nil {
		return nil, err
	}

	metrics.IncTransition(string(EventCreate), string(booking.Status))
	s.logger.Info().
		Str("booking_id", booking.ID.String()).
		Str("tutor_id", tutorID.String()).
		Str("origin", string(origin)).
		Msg("booking created")
	s.publish(events.EventBookingCreated, booking.ID.String(), bookingPayload(&booking, actor))
	return &booking, nil
}

func (s *BookingService) Accept(ctx context.Context, tutor models.Tutor, id uuid.UUID) (*models.Booking, error) {
	return s.apply(ctx, tutor, id, EventAccept, nil)
}

// Reject declines a pending request. The reason is optional.
func (s *BookingService) Reject(ctx context.Context, tutor models.Tutor, id uuid.UUID, reason string) (*models.Booking, error) {
	return s.apply(ctx, tutor, id, EventReject, map[string]any{
		"resolution":    models.ResolutionRejected,
		"cancelled_by":  string(models.RoleTutor),
		"cancel_reason": trimmedOrNil(&reason),
	})
}

func (s *BookingService) Cancel(ctx context.Context, actor models.Actor, id uuid.UUID, reason string) (*models.Booking, error) {
	return s.apply(ctx, actor, id, EventCancel, map[string]any{
		"resolution":    models.ResolutionCancelled,
		"cancelled_by":  string(actor.Role()),
		"cancel_reason": trimmedOrNil(&reason),
	})
}

// Complete closes a confirmed session and counts it toward the tutor's total.
func (s *BookingService) Complete(ctx context.Context, tutor models.Tutor, id uuid.UUID) (*models.Booking, error) {
	return s.apply(ctx, tutor, id, EventComplete, nil)
}

func (s *BookingService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).Preload("TutorFeedback").First(&booking, "id = ?", id).Error; err != nil {
		return nil, storeError(err, "booking")
	}
	if !ownsBooking(actor, &booking) {
		return nil, apperrors.Forbidden("not a participant of this booking")
	}
	return &booking, nil
}

// List returns the actor's bookings, newest first, optionally by status.
func (s *BookingService) List(ctx context.Context, actor models.Actor, status string) ([]models.Booking, error) {
	q := s.db.WithContext(ctx).Preload("TutorFeedback")
	if actor.Role() == models.RoleTutor {
		q = q.Where("tutor_id = ?", actor.UserID())
	} else {
		q = q.Where("student_id = ?", actor.UserID())
	}

	if status != "" {
		st := models.BookingStatus(strings.ToLower(status))
		switch st {
		case models.BookingPending, models.BookingConfirmed, models.BookingCompleted, models.BookingCancelled:
			q = q.Where("status = ?", string(st))
		default:
			return nil, apperrors.Validation("unknown booking status %q", status)
		}
	}

	bookings := []models.Booking{}
	if err := q.Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, storeError(err, "booking")
	}
	return bookings, nil
}

// apply runs one state machine step as a conditional update keyed by the
// status that was read, so two racing calls cannot both succeed.
func (s *BookingService) apply(ctx context.Context, actor models.Actor, id uuid.UUID, event BookingEvent, extra map[string]any) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, "id = ?", id).Error; err != nil {
			return storeError(err, "booking")
		}
		if !ownsBooking(actor, &booking) {
			return apperrors.Forbidden("not a participant of this booking")
		}

		to, err := NextStatus(booking.Status, event, actor.Role())
		if err != nil {
			return err
		}

		updates := map[string]any{"status": string(to), "updated_at": s.now()}
		for k, v := range extra {
			updates[k] = v
		}

		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, string(booking.Status)).
			Updates(updates)
		if res.Error != nil {
			return apperrors.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			var current models.Booking
			if err := tx.First(&current, "id = ?", id).Error; err != nil {
				return storeError(err, "booking")
			}
			return apperrors.InvalidTransition(string(current.Status), string(event))
		}

		if event == EventComplete {
			if err := incrementTotalSessions(tx, booking.TutorID); err != nil {
				return err
			}
		}

		return storeError(tx.Preload("TutorFeedback").First(&booking, "id = ?", id).Error, "booking")
	})
	if err != nil {
		return nil, err
	}

	metrics.IncTransition(string(event), string(booking.Status))
	s.logger.Info().
		Str("booking_id", booking.ID.String()).
		Str("event", string(event)).
		Str("status", string(booking.Status)).
		Str("actor", actor.UserID().String()).
		Msg("booking transition applied")

	if event == EventComplete {
		s.invalidateDirectory(ctx)
	}
	s.publish(bookingEventType(event), booking.ID.String(), bookingPayload(&booking, actor))
	return &booking, nil
}

func bookingParties(actor models.Actor, in CreateBookingInput) (studentID, tutorID uuid.UUID, err error) {
	switch a := actor.(type) {
	case models.Student:
		if in.StudentID != nil && *in.StudentID != a.ID {
			return uuid.Nil, uuid.Nil, apperrors.Forbidden("students can only book for themselves")
		}
		if in.TutorID == nil || *in.TutorID == uuid.Nil {
			return uuid.Nil, uuid.Nil, apperrors.Validation("tutorId is required")
		}
		return a.ID, *in.TutorID, nil
	case models.Tutor:
		if in.TutorID != nil && *in.TutorID != a.ID {
			return uuid.Nil, uuid.Nil, apperrors.Forbidden("tutors can only create their own sessions")
		}
		if in.StudentID == nil || *in.StudentID == uuid.Nil {
			return uuid.Nil, uuid.Nil, apperrors.Validation("studentId is required")
		}
		return *in.StudentID, a.ID, nil
	}
	return uuid.Nil, uuid.Nil, apperrors.Forbidden("unknown role")
}

func ownsBooking(actor models.Actor, b *models.Booking) bool {
	switch actor.(type) {
	case models.Student:
		return b.StudentID == actor.UserID()
	case models.Tutor:
		return b.TutorID == actor.UserID()
	}
	return false
}

func incrementTotalSessions(tx *gorm.DB, tutorID uuid.UUID) error {
	res := tx.Model(&models.TutorProfile{}).
		Where("user_id = ?", tutorID).
		UpdateColumn("total_sessions", gorm.Expr("total_sessions + ?", 1))
	if res.Error != nil {
		return apperrors.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("tutor")
	}
	return nil
}

func bookingEventType(event BookingEvent) string {
	switch event {
	case EventAccept:
		return events.EventBookingConfirmed
	case EventComplete:
		return events.EventBookingCompleted
	default:
		return events.EventBookingCancelled
	}
}

func bookingPayload(b *models.Booking, actor models.Actor) events.BookingEventPayload {
	p := events.BookingEventPayload{
		BookingID: b.ID.String(),
		StudentID: b.StudentID.String(),
		TutorID:   b.TutorID.String(),
		Status:    string(b.Status),
		Date:      b.Date,
		Time:      b.Time,
		Rating:    b.StudentRating,
		ChangedBy: string(actor.Role()),
	}
	if b.Resolution != nil {
		p.Resolution = *b.Resolution
	}
	return p
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
