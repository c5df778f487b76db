package service

import (
	"context"
	"time"

	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/metrics"

	"github.com/rs/zerolog"
)

// ReservationSweeper periodically expires overdue pending reservations.
type ReservationSweeper struct {
	reservations ports.ReservationManager
	interval     time.Duration
	log          zerolog.Logger
}

func NewReservationSweeper(reservations ports.ReservationManager, interval time.Duration, log zerolog.Logger) *ReservationSweeper {
	return &ReservationSweeper{
		reservations: reservations,
		interval:     interval,
		log:          log,
	}
}

// Run sweeps every interval until ctx is done.
func (s *ReservationSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info().Msg("reservation sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single expiry pass.
func (s *ReservationSweeper) SweepOnce(ctx context.Context) {
	n, err := s.reservations.ExpireOverdue(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reservation sweep failed")
		return
	}
	if n > 0 {
		metrics.ReservationsExpired.Add(float64(n))
		s.log.Info().Int64("expired", n).Msg("expired overdue reservations")
	}
}
