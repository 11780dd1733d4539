package services

import (
	"context"
	"strings"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/events"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoubtService struct {
	*base
}

type SubmitDoubtInput struct {
	TutorID  uuid.UUID
	Subject  string
	Question string
	Urgency  string
}

func (s *DoubtService) Submit(ctx context.Context, student models.Student, in SubmitDoubtInput) (*models.Doubt, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, apperrors.Validation("question cannot be empty")
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, apperrors.Validation("subject is required")
	}

	urgency := models.Urgency(strings.ToLower(strings.TrimSpace(in.Urgency)))
	if urgency == "" {
		urgency = models.UrgencyNormal
	}
	if !urgency.Valid() {
		return nil, apperrors.Validation("urgency must be one of normal, high, urgent")
	}

	var tutors int64
	if err := s.db.WithContext(ctx).Model(&models.TutorProfile{}).
		Where("user_id = ?", in.TutorID).Count(&tutors).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	if tutors == 0 {
		return nil, apperrors.NotFound("tutor")
	}

	doubt := models.Doubt{
		StudentID: student.ID,
		TutorID:   in.TutorID,
		Subject:   subject,
		Question:  question,
		Urgency:   urgency,
		Status:    models.DoubtOpen,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&doubt).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info().
		Str("doubt_id", doubt.ID.String()).
		Str("tutor_id", doubt.TutorID.String()).
		Str("urgency", string(urgency)).
		Msg("doubt submitted")
	s.publish(events.EventDoubtSubmitted, doubt.ID.String(), doubtPayload(&doubt))
	return &doubt, nil
}

// Reply answers an open doubt. Only the addressed tutor may answer, once.
func (s *DoubtService) Reply(ctx context.Context, tutor models.Tutor, doubtID uuid.UUID, reply string) (*models.Doubt, error) {
	text := strings.TrimSpace(reply)
	if text == "" {
		return nil, apperrors.Validation("reply cannot be empty")
	}

	var doubt models.Doubt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&doubt, "id = ?", doubtID).Error; err != nil {
			return storeError(err, "doubt")
		}
		if doubt.TutorID != tutor.ID {
			return apperrors.Forbidden("only the addressed tutor can reply")
		}
		if doubt.Status == models.DoubtAnswered {
			return apperrors.AlreadyAnswered()
		}

		res := tx.Model(&models.Doubt{}).
			Where("id = ? AND status = ?", doubtID, string(models.DoubtOpen)).
			Updates(map[string]any{
				"status":     string(models.DoubtAnswered),
				"reply":      text,
				"replied_at": s.now(),
			})
		if res.Error != nil {
			return apperrors.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.AlreadyAnswered()
		}
		return storeError(tx.First(&doubt, "id = ?", doubtID).Error, "doubt")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("doubt_id", doubt.ID.String()).Msg("doubt answered")
	s.publish(events.EventDoubtAnswered, doubt.ID.String(), doubtPayload(&doubt))
	return &doubt, nil
}

// List returns the doubts the actor asked or was asked, newest first.
func (s *DoubtService) List(ctx context.Context, actor models.Actor, status string) ([]models.Doubt, error) {
	q := s.db.WithContext(ctx)
	if actor.Role() == models.RoleTutor {
		q = q.Where("tutor_id = ?", actor.UserID())
	} else {
		q = q.Where("student_id = ?", actor.UserID())
	}

	switch st := models.DoubtStatus(strings.ToLower(status)); st {
	case "":
	case models.DoubtOpen, models.DoubtAnswered:
		q = q.Where("status = ?", string(st))
	default:
		return nil, apperrors.Validation("unknown doubt status %q", status)
	}

	doubts := []models.Doubt{}
	if err := q.Order("created_at DESC").Find(&doubts).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return doubts, nil
}

func doubtPayload(d *models.Doubt) events.DoubtEventPayload {
	return events.DoubtEventPayload{
		DoubtID:   d.ID.String(),
		StudentID: d.StudentID.String(),
		TutorID:   d.TutorID.String(),
		Subject:   d.Subject,
		Urgency:   string(d.Urgency),
		Status:    string(d.Status),
	}
}
