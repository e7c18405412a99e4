package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"retentionflow-backend/utils"
)

// CycleRunner is the part of FollowupService the scheduler drives.
type CycleRunner interface {
	RunDailyCycle(ctx context.Context, today time.Time, phases ...Phase) (CycleResult, error)
}

// StartScheduler runs the daily cycle on spec in loc. The returned cron must
// be stopped on shutdown.
func StartScheduler(runner CycleRunner, spec string, loc *time.Location) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err := c.AddFunc(spec, func() {
		today := utils.Today(time.Now(), loc)
		result, err := runner.RunDailyCycle(context.Background(), today)
		switch {
		case errors.Is(err, ErrCycleInProgress):
			log.Warn().Msg("Skipping scheduled cycle, another run holds the lock")
		case err != nil:
			log.Error().Err(err).Msg("Scheduled cycle could not start")
		case !result.Success:
			log.Error().Str("error", result.Error).Msg("Scheduled cycle finished with errors")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler spec %q: %w", spec, err)
	}

	c.Start()
	log.Info().Str("spec", spec).Str("timezone", loc.String()).Msg("Followup scheduler started")
	return c, nil
}
