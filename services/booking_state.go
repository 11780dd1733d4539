package services

import (
	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/models"
)

type BookingEvent string

const (
	EventCreate   BookingEvent = "create"
	EventAccept   BookingEvent = "accept"
	EventReject   BookingEvent = "reject"
	EventCancel   BookingEvent = "cancel"
	EventComplete BookingEvent = "complete"
)

type transitionKey struct {
	from  models.BookingStatus
	event BookingEvent
}

type transitionRule struct {
	to     models.BookingStatus
	actors []models.Role
}

// bookingTransitions is the whole lifecycle. Ratings and tutor feedback keep
// a booking completed and are guarded separately.
var bookingTransitions = map[transitionKey]transitionRule{
	{models.BookingPending, EventAccept}:     {to: models.BookingConfirmed, actors: []models.Role{models.RoleTutor}},
	{models.BookingPending, EventReject}:     {to: models.BookingCancelled, actors: []models.Role{models.RoleTutor}},
	{models.BookingPending, EventCancel}:     {to: models.BookingCancelled, actors: []models.Role{models.RoleStudent}},
	{models.BookingConfirmed, EventCancel}:   {to: models.BookingCancelled, actors: []models.Role{models.RoleStudent, models.RoleTutor}},
	{models.BookingConfirmed, EventComplete}: {to: models.BookingCompleted, actors: []models.Role{models.RoleTutor}},
}

// InitialStatus is the status a new booking starts in. Tutor-initiated
// bookings skip the request step.
func InitialStatus(origin models.BookingOrigin) models.BookingStatus {
	if origin == models.OriginTutor {
		return models.BookingConfirmed
	}
	return models.BookingPending
}

// OriginFor maps the creating actor to the booking origin.
func OriginFor(role models.Role) models.BookingOrigin {
	if role == models.RoleTutor {
		return models.OriginTutor
	}
	return models.OriginStudent
}

// NextStatus validates event against the table and returns the target status.
// A row that does not list the actor's role counts as absent from the table.
func NextStatus(from models.BookingStatus, event BookingEvent, role models.Role) (models.BookingStatus, error) {
	rule, ok := bookingTransitions[transitionKey{from: from, event: event}]
	if !ok {
		return "", apperrors.InvalidTransition(string(from), string(event))
	}

	for _, allowed := range rule.actors {
		if allowed == role {
			return rule.to, nil
		}
	}
	return "", apperrors.InvalidTransition(string(from), string(event))
}
