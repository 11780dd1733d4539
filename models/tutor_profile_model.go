package models

import (
	"time"

	"github.com/google/uuid"
)

// TutorProfile holds the tutor-only fields of a user. Rating, RatingCount and
// TotalSessions are derived from the sessions table and only written by the
// booking and feedback services.
type TutorProfile struct {
	UserID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"userId"`
	Bio           *string        `gorm:"type:text" json:"bio,omitempty"`
	Experience    int            `gorm:"not null;default:0" json:"experience"`
	HourlyRate    float64        `gorm:"type:numeric(10,2);not null;default:0" json:"hourlyRate"`
	Available     bool           `gorm:"not null" json:"available"`
	Rating        *float64       `json:"rating"`
	RatingCount   int            `gorm:"not null;default:0" json:"ratingCount"`
	TotalSessions int            `gorm:"not null;default:0" json:"totalSessions"`
	Subjects      []TutorSubject `gorm:"foreignKey:TutorID;references:UserID" json:"-"`
	User          User           `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt     time.Time      `json:"-"`
	UpdatedAt     time.Time      `json:"-"`
}

// SubjectNames returns the display names of the tutor's subjects.
func (p *TutorProfile) SubjectNames() []string {
	names := make([]string, 0, len(p.Subjects))
	for _, s := range p.Subjects {
		names = append(names, s.Name)
	}
	return names
}
