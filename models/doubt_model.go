package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoubtStatus string

const (
	DoubtOpen     DoubtStatus = "open"
	DoubtAnswered DoubtStatus = "answered"
)

type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyNormal, UrgencyHigh, UrgencyUrgent:
		return true
	}
	return false
}

// Doubt is a standalone question from a student to one tutor. Reply and
// RepliedAt are written together, once.
type Doubt struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID   `gorm:"type:uuid;not null;index" json:"studentId"`
	TutorID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"tutorId"`
	Subject   string      `gorm:"size:100;not null" json:"subject"`
	Question  string      `gorm:"type:text;not null" json:"question"`
	Urgency   Urgency     `gorm:"size:10;not null" json:"urgency"`
	Status    DoubtStatus `gorm:"size:10;not null;index" json:"status"`
	Reply     *string     `gorm:"type:text" json:"reply,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	RepliedAt *time.Time  `json:"repliedAt,omitempty"`
}

func (d *Doubt) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
