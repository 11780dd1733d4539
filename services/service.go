package services

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/events"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// DirectoryCache caches tutor directory reads. Implemented by cache.DirectoryCache.
type DirectoryCache interface {
	Get(ctx context.Context, key string, dst any) (found bool, gen int64, err error)
	Set(ctx context.Context, key string, gen int64, value any) error
	Invalidate(ctx context.Context) error
}

type Deps struct {
	Bus       *events.EventBus
	Cache     DirectoryCache
	Logger    *zerolog.Logger
	JWTSecret string
	TokenTTL  time.Duration
}

type Services struct {
	Auth       *AuthService
	Bookings   *BookingService
	Feedback   *FeedbackService
	Doubts     *DoubtService
	Directory  *TutorDirectoryService
	Aggregates *AggregateService
}

func New(db *gorm.DB, deps Deps) *Services {
	if deps.Logger == nil {
		nop := zerolog.Nop()
		deps.Logger = &nop
	}
	if deps.TokenTTL <= 0 {
		deps.TokenTTL = 72 * time.Hour
	}

	base := &base{db: db, bus: deps.Bus, cache: deps.Cache, logger: deps.Logger, now: time.Now}
	return &Services{
		Auth:       &AuthService{base: base, secret: []byte(deps.JWTSecret), ttl: deps.TokenTTL, hashCost: defaultHashCost},
		Bookings:   &BookingService{base: base},
		Feedback:   &FeedbackService{base: base},
		Doubts:     &DoubtService{base: base},
		Directory:  &TutorDirectoryService{base: base},
		Aggregates: &AggregateService{base: base},
	}
}

// base carries the collaborators every service shares.
type base struct {
	db     *gorm.DB
	bus    *events.EventBus
	cache  DirectoryCache
	logger *zerolog.Logger
	now    func() time.Time
}

// invalidateDirectory drops cached directory pages after a tutor aggregate
// or profile changed. Failures only cost staleness until the TTL.
func (b *base) invalidateDirectory(ctx context.Context) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Invalidate(ctx); err != nil {
		b.logger.Warn().Err(err).Msg("tutor directory cache invalidation failed")
	}
}

func (b *base) publish(eventType, key string, payload any) {
	if err := b.bus.PublishJSON(eventType, key, payload); err != nil {
		b.logger.Warn().Err(err).Str("event", eventType).Msg("event publish failed")
	}
}

// storeError maps a storage failure to the client-facing taxonomy. Domain
// errors pass through unchanged.
func storeError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return apperrors.Internal(err)
}
