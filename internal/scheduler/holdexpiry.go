package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/courtly/courtly/internal/booking"
)

const holdExpiryJobTimeout = 2 * time.Minute

// RegisterHoldExpiryJob schedules the sweep that releases pending holds
// whose payment deadline has passed. The job runs in singleton mode so a
// slow sweep is never overlapped by the next tick.
func RegisterHoldExpiryJob(manager *booking.Manager, cronExpr string) error {
	if manager == nil {
		return fmt.Errorf("hold expiry job requires booking manager")
	}

	jobName := "hold_expiry_sweep"
	jobLogger := log.With().
		Str("component", "hold_expiry_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), holdExpiryJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		released, err := manager.ReleaseExpired(ctx)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to sweep expired holds")
			return
		}
		if released > 0 {
			jobLogger.Info().Int("released", released).Msg("Released expired holds")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeReschedule))
	return err
}
