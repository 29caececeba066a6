/**
 * @description
 * Cron-driven sweep that reclaims abandoned pending purchases. A purchase is
 * abandoned when the payer never completed (or never received) the STK push;
 * without the sweep those entries would accumulate for the process lifetime.
 */

package app

import (
	"log/slog"
	"time"

	"github.com/mmkash-web/wifibill/internal/store"
	"github.com/robfig/cron/v3"
)

// Sweeper periodically expires ledger entries older than a configured TTL.
type Sweeper struct {
	cron     *cron.Cron
	ledger   store.Ledger
	maxAge   time.Duration
	schedule string
	logger   *slog.Logger
}

// NewSweeper creates a sweeper that runs on the given cron schedule.
func NewSweeper(ledger store.Ledger, maxAge time.Duration, schedule string, logger *slog.Logger) *Sweeper {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	return &Sweeper{
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger))),
		ledger:   ledger,
		maxAge:   maxAge,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the sweep job and starts the cron scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduled pending purchase sweep", "schedule", s.schedule, "max_age", s.maxAge)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	expired := s.ledger.ExpireOlderThan(s.maxAge)
	if len(expired) == 0 {
		return
	}
	for _, purchase := range expired {
		s.logger.Info("expired abandoned pending purchase",
			"phone", purchase.PhoneNumber,
			"package", purchase.Package.ID,
			"reference", purchase.Reference,
			"age", time.Since(purchase.CreatedAt).Round(time.Second),
		)
	}
	s.logger.Info("pending purchase sweep finished", "expired", len(expired), "outstanding", s.ledger.Len())
}
