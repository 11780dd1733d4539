package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type BookingOrigin string

const (
	OriginStudent BookingOrigin = "student_initiated"
	OriginTutor   BookingOrigin = "tutor_initiated"
)

// Resolution tells the two ways a booking can end up cancelled apart.
const (
	ResolutionRejected  = "rejected"
	ResolutionCancelled = "cancelled"
)

// Booking is a tutoring session. It is stored in the sessions table and
// never deleted; cancellation and rejection are terminal states.
type Booking struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"studentId"`
	TutorID        uuid.UUID     `gorm:"type:uuid;not null;index:idx_sessions_tutor_slot,priority:1" json:"tutorId"`
	Subject        string        `gorm:"size:100;not null" json:"subject"`
	Topic          *string       `gorm:"size:255" json:"topic,omitempty"`
	Date           string        `gorm:"size:10;not null;index:idx_sessions_tutor_slot,priority:2" json:"date"`
	Time           string        `gorm:"size:5;not null;index:idx_sessions_tutor_slot,priority:3" json:"time"`
	Duration       int           `gorm:"not null" json:"duration"`
	Rate           float64       `gorm:"type:numeric(10,2);not null" json:"rate"`
	Level          *string       `gorm:"size:50" json:"level,omitempty"`
	Message        *string       `gorm:"type:text" json:"message,omitempty"`
	Status         BookingStatus `gorm:"size:20;not null;index" json:"status"`
	Origin         BookingOrigin `gorm:"size:20;not null" json:"origin"`
	Resolution     *string       `gorm:"size:20" json:"resolution,omitempty"`
	CancelledBy    *string       `gorm:"size:20" json:"cancelledBy,omitempty"`
	CancelReason   *string       `gorm:"type:text" json:"cancelReason,omitempty"`
	StudentRating  *int          `json:"studentRating,omitempty"`
	StudentComment *string       `gorm:"type:text" json:"studentComment,omitempty"`
	RatedAt        *time.Time    `json:"ratedAt,omitempty"`
	TutorFeedback  *Feedback     `gorm:"foreignKey:SessionID" json:"tutorFeedback,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

func (Booking) TableName() string {
	return "sessions"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
