package services

import (
	"context"
	"sync"
	"testing"

	"github.com/anjiri1684/tutor_connect/events"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/anjiri1684/tutor_connect/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	svc    *Services
	db     *gorm.DB
	events *eventLog
}

type eventLog struct {
	mu    sync.Mutex
	types []string
}

func (l *eventLog) record(e *events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.types = append(l.types, e.Type)
	return nil
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.types...)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithCache(t, nil)
}

func newFixtureWithCache(t *testing.T, cache DirectoryCache) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	log := &eventLog{}
	bus := events.NewEventBus(nil)
	bus.SubscribeAll(log.record)

	svc := New(db, Deps{Bus: bus, Cache: cache, JWTSecret: "test-secret"})
	svc.Auth.hashCost = bcrypt.MinCost
	return &fixture{svc: svc, db: db, events: log}
}

func (f *fixture) student(t *testing.T, name string) models.Student {
	t.Helper()
	u, err := f.svc.Auth.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "password123",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)
	return models.Student{ID: u.ID}
}

type tutorOpts struct {
	subjects   []string
	experience int
	rate       float64
	available  *bool
}

func (f *fixture) tutor(t *testing.T, name string, opts tutorOpts) models.Tutor {
	t.Helper()
	if opts.subjects == nil {
		opts.subjects = []string{"Mathematics"}
	}
	u, err := f.svc.Auth.Register(context.Background(), RegisterInput{
		Name:       name,
		Email:      name + "@example.com",
		Password:   "password123",
		Role:       models.RoleTutor,
		Subjects:   opts.subjects,
		Experience: opts.experience,
		HourlyRate: opts.rate,
		Available:  opts.available,
	})
	require.NoError(t, err)
	return models.Tutor{ID: u.ID}
}

func (f *fixture) book(t *testing.T, student models.Student, tutor models.Tutor, date, clock string) *models.Booking {
	t.Helper()
	b, err := f.svc.Bookings.Create(context.Background(), student, CreateBookingInput{
		TutorID:  &tutor.ID,
		Subject:  "Mathematics",
		Date:     date,
		Time:     clock,
		Duration: 60,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) completed(t *testing.T, student models.Student, tutor models.Tutor, date, clock string) *models.Booking {
	t.Helper()
	ctx := context.Background()
	b := f.book(t, student, tutor, date, clock)
	_, err := f.svc.Bookings.Accept(ctx, tutor, b.ID)
	require.NoError(t, err)
	b, err = f.svc.Bookings.Complete(ctx, tutor, b.ID)
	require.NoError(t, err)
	return b
}

func (f *fixture) profile(t *testing.T, tutorID uuid.UUID) models.TutorProfile {
	t.Helper()
	var p models.TutorProfile
	require.NoError(t, f.db.First(&p, "user_id = ?", tutorID).Error)
	return p
}

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }
