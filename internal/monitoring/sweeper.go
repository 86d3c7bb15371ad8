package monitoring

import (
	"time"

	"github.com/isdelr/parley-be/internal/auth"
	"github.com/rs/zerolog/log"
)

// Sweeper periodically prunes expired session-revocation entries and lapsed
// federated-login states so the authenticator's bookkeeping stays bounded.
type Sweeper struct {
	authenticator *auth.Authenticator
	ticker        *time.Ticker
	done          chan bool
}

// NewSweeper creates a new Sweeper.
func NewSweeper(authenticator *auth.Authenticator) *Sweeper {
	return &Sweeper{
		authenticator: authenticator,
		done:          make(chan bool),
	}
}

// Run starts the periodic sweep.
func (s *Sweeper) Run() {
	log.Info().Msg("Starting background session sweeper...")
	s.ticker = time.NewTicker(5 * time.Minute)
	defer s.ticker.Stop()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping background session sweeper.")
			return
		case <-s.ticker.C:
			revoked, states := s.authenticator.SweepExpired()
			if revoked > 0 || states > 0 {
				log.Debug().Int("revoked_pruned", revoked).Int("states_pruned", states).
					Msg("Swept expired auth state")
			}
		}
	}
}

// Stop halts the sweeper.
func (s *Sweeper) Stop() {
	s.done <- true
}
