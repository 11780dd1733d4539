package models

import "github.com/google/uuid"

// Actor is an authenticated caller. The concrete type is the capability:
// operations reserved for one role take that role's type.
type Actor interface {
	UserID() uuid.UUID
	Role() Role
}

type Student struct {
	ID uuid.UUID
}

func (s Student) UserID() uuid.UUID { return s.ID }
func (s Student) Role() Role        { return RoleStudent }

type Tutor struct {
	ID uuid.UUID
}

func (t Tutor) UserID() uuid.UUID { return t.ID }
func (t Tutor) Role() Role        { return RoleTutor }

// NewActor builds the actor variant for a role, or false for an unknown role.
func NewActor(id uuid.UUID, role Role) (Actor, bool) {
	switch role {
	case RoleStudent:
		return Student{ID: id}, true
	case RoleTutor:
		return Tutor{ID: id}, true
	}
	return nil, false
}
