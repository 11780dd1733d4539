package services

import (
	"context"
	"sync"
	"testing"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/events"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	tutor := f.tutor(t, "tina", tutorOpts{rate: 30})

	b := f.book(t, student, tutor, "2025-03-01", "10:00")
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, models.OriginStudent, b.Origin)
	assert.Equal(t, 30.0, b.Rate)

	b, err := f.svc.Bookings.Accept(ctx, tutor, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)

	b, err = f.svc.Bookings.Complete(ctx, tutor, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, b.Status)
	assert.Equal(t, 1, f.profile(t, tutor.ID).TotalSessions)

	b, err = f.svc.Feedback.SubmitStudentRating(ctx, student, b.ID, 4, strPtr("helpful"))
	require.NoError(t, err)
	require.NotNil(t, b.StudentRating)
	assert.Equal(t, 4, *b.StudentRating)
	assert.Equal(t, "helpful", *b.StudentComment)
	assert.NotNil(t, b.RatedAt)

	p := f.profile(t, tutor.ID)
	require.NotNil(t, p.Rating)
	assert.InDelta(t, 4.0, *p.Rating, 1e-9)
	assert.Equal(t, 1, p.RatingCount)

	assert.Equal(t, []string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingCompleted,
		events.EventBookingRated,
	}, f.events.all())
}

func TestUnavailableTutorRefusesRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	tutor := f.tutor(t, "tina", tutorOpts{available: boolPtr(false)})

	_, err := f.svc.Bookings.Create(ctx, student, CreateBookingInput{
		TutorID: &tutor.ID, Subject: "Mathematics", Date: "2025-03-01", Time: "10:00", Duration: 60,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict), "got %v", err)

	var count int64
	require.NoError(t, f.db.Model(&models.Booking{}).Count(&count).Error)
	assert.Zero(t, count)

	b, err := f.svc.Bookings.Create(ctx, tutor, CreateBookingInput{
		StudentID: &student.ID, Subject: "Mathematics", Date: "2025-03-01", Time: "10:00", Duration: 60,
	})
	require.NoError(t, err, "a tutor can still schedule their own sessions")
	assert.Equal(t, models.BookingConfirmed, b.Status)
}

func TestStudentBookingConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	other := f.student(t, "sue")
	tutor := f.tutor(t, "tina", tutorOpts{})

	f.book(t, student, tutor, "2025-03-01", "10:00")

	_, err := f.svc.Bookings.Create(ctx, other, CreateBookingInput{
		TutorID: &tutor.ID, Subject: "Mathematics", Date: "2025-03-01", Time: "10:00", Duration: 60,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict), "got %v", err)

	// Same slot written differently.
	_, err = f.svc.Bookings.Create(ctx, student, CreateBookingInput{
		TutorID: &tutor.ID, Subject: "Mathematics", Date: "2025-03-01", Time: "10:00:00", Duration: 30,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict), "got %v", err)

	f.book(t, other, tutor, "2025-03-01", "11:00")
}

func TestConflictReleasedByCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	tutor := f.tutor(t, "tina", tutorOpts{})

	first := f.book(t, student, tutor, "2025-03-01", "10:00")
	cancelled, err := f.svc.Bookings.Cancel(ctx, student, first.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.Equal(t, models.ResolutionCancelled, *cancelled.Resolution)
	assert.Equal(t, string(models.RoleStudent), *cancelled.CancelledBy)
	assert.Nil(t, cancelled.CancelReason)

	second := f.book(t, student, tutor, "2025-03-01", "10:00")
	assert.Equal(t, models.BookingPending, second.Status)
}

func TestTutorInitiatedBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	tutor := f.tutor(t, "tina", tutorOpts{rate: 20})

	rate := 15.0
	b, err := f.svc.Bookings.Create(ctx, tutor, CreateBookingInput{
		StudentID: &student.ID, Subject: "Algebra", Date: "2025-03-02", Time: "09:00", Duration: 45, Rate: &rate,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.Equal(t, models.OriginTutor, b.Origin)
	assert.Equal(t, 15.0, b.Rate)

	_, err = f.svc.Bookings.Create(ctx, student, CreateBookingInput{
		TutorID: &tutor.ID, Subject: "Algebra", Date: "2025-03-02", Time: "9:00", Duration: 45,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict), "got %v", err)

	_, err = f.svc.Bookings.Create(ctx, tutor, CreateBookingInput{
		StudentID: &student.ID, Subject: "Algebra", Date: "2025-03-02", Time: "09:00", Duration: 45,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict), "got %v", err)
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	otherStudent := f.student(t, "sue")
	tutor := f.tutor(t, "tina", tutorOpts{})
	unknown := uuid.New()

	tests := []struct {
		name  string
		actor models.Actor
		in    CreateBookingInput
		kind  apperrors.Kind
	}{
		{"missing tutor", student, CreateBookingInput{Subject: "x", Date: "2025-03-01", Time: "10:00", Duration: 60}, apperrors.KindValidation},
		{"bad date", student, CreateBookingInput{TutorID: &tutor.ID, Subject: "x", Date: "03/01/2025", Time: "10:00", Duration: 60}, apperrors.KindValidation},
		{"bad time", student, CreateBookingInput{TutorID: &tutor.ID, Subject: "x", Date: "2025-03-01", Time: "ten", Duration: 60}, apperrors.KindValidation},
		{"zero duration", student, CreateBookingInput{TutorID: &tutor.ID, Subject: "x", Date: "2025-03-01", Time: "10:00"}, apperrors.KindValidation},
		{"blank subject", student, CreateBookingInput{TutorID: &tutor.ID, Subject: "  ", Date: "2025-03-01", Time: "10:00", Duration: 60}, apperrors.KindValidation},
		{"unknown tutor", student, CreateBookingInput{TutorID: &unknown, Subject: "x", Date: "2025-03-01", Time: "10:00", Duration: 60}, apperrors.KindNotFound},
		{"student is not a tutor", student, CreateBookingInput{TutorID: &otherStudent.ID, Subject: "x", Date: "2025-03-01", Time: "10:00", Duration: 60}, apperrors.KindNotFound},
		{"booking for someone else", student, CreateBookingInput{StudentID: &otherStudent.ID, TutorID: &tutor.ID, Subject: "x", Date: "2025-03-01", Time: "10:00", Duration: 60}, apperrors.KindForbidden},
		{"tutor without student", tutor, CreateBookingInput{Subject: "x", Date: "2025-03-01", Time: "10:00", Duration: 60}, apperrors.KindValidation},
		{"tutor books a tutor", tutor, CreateBookingInput{StudentID: &tutor.ID, Subject: "x", Date: "2025-03-01", Time: "10:00", Duration: 60}, apperrors.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Bookings.Create(ctx, tt.actor, tt.in)
			assert.True(t, apperrors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestCompleteIncrementsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	tutor := f.tutor(t, "tina", tutorOpts{})

	b := f.completed(t, student, tutor, "2025-03-01", "10:00")
	assert.Equal(t, 1, f.profile(t, tutor.ID).TotalSessions)

	_, err := f.svc.Bookings.Complete(ctx, tutor, b.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition), "got %v", err)
	assert.Equal(t, 1, f.profile(t, tutor.ID).TotalSessions)

	var stored models.Booking
	require.NoError(t, f.db.First(&stored, "id = ?", b.ID).Error)
	assert.Equal(t, models.BookingCompleted, stored.Status)
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	f := newFixture(t)
	student := f.student(t, "sam")
	tutor := f.tutor(t, "tina", tutorOpts{})

	b := f.book(t, student, tutor, "2025-03-01", "10:00")
	_, err := f.svc.Bookings.Complete(context.Background(), tutor, b.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition), "got %v", err)
	assert.Equal(t, 0, f.profile(t, tutor.ID).TotalSessions)
}

func TestRejectStoresReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	tutor := f.tutor(t, "tina", tutorOpts{})

	b := f.book(t, student, tutor, "2025-03-01", "10:00")
	b, err := f.svc.Bookings.Reject(ctx, tutor, b.ID, "  fully booked ")
	require.NoError(t, err)

	assert.Equal(t, models.BookingCancelled, b.Status)
	assert.Equal(t, models.ResolutionRejected, *b.Resolution)
	assert.Equal(t, string(models.RoleTutor), *b.CancelledBy)
	assert.Equal(t, "fully booked", *b.CancelReason)

	_, err = f.svc.Bookings.Accept(ctx, tutor, b.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition), "got %v", err)
	_, err = f.svc.Bookings.Cancel(ctx, student, b.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition), "got %v", err)
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	tutor := f.tutor(t, "tina", tutorOpts{})

	pending := f.book(t, student, tutor, "2025-03-01", "10:00")
	_, err := f.svc.Bookings.Cancel(ctx, tutor, pending.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition), "tutors reject pending bookings, got %v", err)
	assert.EqualError(t, err, "INVALID_TRANSITION: cannot cancel a booking that is pending")

	_, err = f.svc.Bookings.Accept(ctx, tutor, pending.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.Bookings.Cancel(ctx, tutor, pending.ID, "sick")
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleTutor), *cancelled.CancelledBy)
	assert.Equal(t, "sick", *cancelled.CancelReason)
}

func TestOnlyParticipantsMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	stranger := f.student(t, "sue")
	tutor := f.tutor(t, "tina", tutorOpts{})
	otherTutor := f.tutor(t, "tom", tutorOpts{})

	b := f.book(t, student, tutor, "2025-03-01", "10:00")

	_, err := f.svc.Bookings.Accept(ctx, otherTutor, b.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden), "got %v", err)

	_, err = f.svc.Bookings.Cancel(ctx, stranger, b.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden), "got %v", err)

	_, err = f.svc.Bookings.Get(ctx, stranger, b.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden), "got %v", err)

	_, err = f.svc.Bookings.Accept(ctx, tutor, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound), "got %v", err)
}

func TestConcurrentDecisionsOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	tutor := f.tutor(t, "tina", tutorOpts{})
	b := f.book(t, student, tutor, "2025-03-01", "10:00")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.svc.Bookings.Accept(ctx, tutor, b.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.svc.Bookings.Reject(ctx, tutor, b.ID, "")
	}()
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition), "got %v", err)
	}
	assert.Equal(t, 1, successes)
}

func TestListAndGetBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.student(t, "sam")
	tutor := f.tutor(t, "tina", tutorOpts{})

	first := f.book(t, student, tutor, "2025-03-01", "10:00")
	f.completed(t, student, tutor, "2025-03-02", "10:00")

	mine, err := f.svc.Bookings.List(ctx, student, "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := f.svc.Bookings.List(ctx, tutor, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	_, err = f.svc.Bookings.List(ctx, tutor, "archived")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation), "got %v", err)

	got, err := f.svc.Bookings.Get(ctx, tutor, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", got.Date)
	assert.Nil(t, got.TutorFeedback)
}
