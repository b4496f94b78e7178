package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically destroys idle sessions and purges expired cached
// keys. Destruction happens under each session's own exclusion, inside
// Store.Sweep.
type Sweeper struct {
	store     *Store
	interval  time.Duration
	idleAfter time.Duration
	log       zerolog.Logger
}

// NewSweeper returns a sweeper over store firing every interval.
func NewSweeper(store *Store, interval, idleAfter time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{store: store, interval: interval, idleAfter: idleAfter, log: log}
}

// Run blocks, sweeping on each tick, until ctx is cancelled.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := w.store.Sweep(ctx, w.idleAfter); n > 0 {
				w.log.Info().Int("destroyed", n).Msg("swept idle sessions")
			}
		}
	}
}
