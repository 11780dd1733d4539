package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Reconciler rewrites tutor aggregates that drifted from the sessions table.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

const reconcileTimeout = 5 * time.Minute

// ReconcileTutorAggregates returns the cron job body for aggregate reconciliation.
func ReconcileTutorAggregates(r Reconciler, logger *zerolog.Logger) func() {
	return func() {
		logger.Debug().Msg("running job: reconcile tutor aggregates")

		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		fixed, err := r.Reconcile(ctx)
		if err != nil {
			logger.Error().Err(err).Int("fixed", fixed).Msg("reconcile tutor aggregates failed")
			return
		}
		if fixed > 0 {
			logger.Info().Int("fixed", fixed).Msg("tutor aggregates reconciled")
		}
	}
}

// Schedule registers the background jobs on c.
func Schedule(c *cron.Cron, reconcileSpec string, r Reconciler, logger *zerolog.Logger) error {
	if _, err := c.AddFunc(reconcileSpec, ReconcileTutorAggregates(r, logger)); err != nil {
		return err
	}
	return nil
}
