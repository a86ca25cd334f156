package infra

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"investra/internal/service"
)

// Scheduler manages the recurring background jobs: refreshing the
// exchange-rate cache and expiring stale pending withdrawals
type Scheduler struct {
	cron            *cron.Cron
	accounts        *service.AccountService
	rates           *service.RateService
	pendingMaxAge   time.Duration
	ratesEvery      string
	staleSweepEvery string
	log             *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(accounts *service.AccountService, rates *service.RateService, pendingMaxAge time.Duration, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		accounts:        accounts,
		rates:           rates,
		pendingMaxAge:   pendingMaxAge,
		ratesEvery:      "@every 10m",
		staleSweepEvery: "@every 1h",
		log:             log,
	}
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	s.log.Info("Starting scheduler...")

	_, err := s.cron.AddFunc(s.ratesEvery, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.rates.Refresh(ctx); err != nil {
			s.log.Errorf("Scheduled rates refresh failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(s.staleSweepEvery, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := s.accounts.ExpireStalePending(ctx, s.pendingMaxAge); err != nil {
			s.log.Errorf("Scheduled stale-pending sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("Scheduler started successfully")
	return nil
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop() {
	s.log.Info("Stopping scheduler...")
	s.cron.Stop()
	s.log.Info("Scheduler stopped")
}
