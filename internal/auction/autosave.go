package auction

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartAutosave writes the snapshot to the local store on a fixed interval
// until ctx is cancelled. Mutations already persist synchronously; this is
// a backstop so a crashed process never loses more than one interval of
// merged remote changes.
func (a *App) StartAutosave(ctx context.Context, interval time.Duration) {
	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("autosave started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("autosave stopped")
			return
		case <-ticker.Chan():
			if err := a.persist(ctx); err != nil {
				log.Error().Err(err).Msg("autosave failed")
			}
		}
	}
}
