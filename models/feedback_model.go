package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback is the tutor's progress note on a completed session.
type Feedback struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"sessionId"`
	TutorID      uuid.UUID `gorm:"type:uuid;not null;index" json:"tutorId"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;index" json:"studentId"`
	Rating       int       `gorm:"not null" json:"rating"`
	Strengths    *string   `gorm:"type:text" json:"strengths,omitempty"`
	Improvements *string   `gorm:"type:text" json:"improvements,omitempty"`
	Notes        string    `gorm:"type:text;not null" json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (Feedback) TableName() string {
	return "feedback"
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
