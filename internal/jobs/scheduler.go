package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"farmap/api/internal/repository"
)

// Scheduler periodically reclaims expired sessions and nonces.
// Correctness never depends on it: expiry is checked logically on
// every resolve and consume. This only keeps the tables from growing
// without bound.
type Scheduler struct {
	cron     *cron.Cron
	sessions *repository.SessionRepository
	nonces   *repository.NonceRepository
	log      zerolog.Logger
}

func NewScheduler(sessions *repository.SessionRepository, nonces *repository.NonceRepository, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		nonces:   nonces,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()

	sessions, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep expired sessions failed")
	}

	nonces, err := s.nonces.DeleteExpired(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep expired nonces failed")
	}

	s.log.Debug().
		Int64("sessions", sessions).
		Int64("nonces", nonces).
		Msg("expired rows swept")
}
