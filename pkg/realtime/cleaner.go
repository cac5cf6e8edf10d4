package realtime

import (
	"context"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

// StartCleaner returns deliveries held by dead consumers to the ready list
// every interval until ctx is done.
func StartCleaner(ctx context.Context, connection rmq.Connection, interval time.Duration) {
	cleaner := rmq.NewCleaner(connection)

	log.Info().Msg("Starting realtime-queue cleaner process")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			returned, err := cleaner.Clean()
			if err != nil {
				log.Error().Err(err).Msg("Failed to clean")
				continue
			}

			if returned != 0 {
				log.Info().Msgf("Cleaned %d records", returned)
			}
		}
	}
}
