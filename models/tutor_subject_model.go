package models

import (
	"strings"

	"github.com/google/uuid"
)

type TutorSubject struct {
	TutorID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key     string    `gorm:"column:subject_key;size:100;primaryKey"`
	Name    string    `gorm:"size:100;not null"`
}

// SubjectKey is the case-insensitive lookup form of a subject name.
func SubjectKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
