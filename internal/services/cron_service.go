package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron        *cron.Cron
	occurrences *OccurrenceService
	logger      *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(occurrences *OccurrenceService, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:        cron.New(cron.WithSeconds()),
		occurrences: occurrences,
		logger:      logger,
	}
}

// Start registers and starts all background jobs.
// Cron format: second minute hour day month weekday.
func (s *CronService) Start() error {
	// Generate upcoming occurrences daily at 2 AM
	if _, err := s.cron.AddFunc("0 0 2 * * *", s.generateOccurrencesJob); err != nil {
		return fmt.Errorf("failed to schedule occurrence generation: %w", err)
	}

	// Mark overdue occurrences departed every minute
	if _, err := s.cron.AddFunc("0 * * * * *", s.sweepDepartedJob); err != nil {
		return fmt.Errorf("failed to schedule departed sweep: %w", err)
	}

	// Release expired pending seat holds every 5 minutes
	if _, err := s.cron.AddFunc("0 */5 * * * *", s.expirePendingJob); err != nil {
		return fmt.Errorf("failed to schedule pending expiry: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops all cron jobs, waiting for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) generateOccurrencesJob() {
	start := time.Now()
	created, err := s.occurrences.GenerateOccurrences()
	if err != nil {
		s.logger.WithError(err).Error("Occurrence generation job failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"created":  created,
		"duration": time.Since(start).String(),
	}).Info("Occurrence generation job finished")
}

func (s *CronService) sweepDepartedJob() {
	if _, err := s.occurrences.SweepDeparted(); err != nil {
		s.logger.WithError(err).Error("Departed sweep job failed")
	}
}

func (s *CronService) expirePendingJob() {
	if _, err := s.occurrences.ExpirePendingHolds(); err != nil {
		s.logger.WithError(err).Error("Pending expiry job failed")
	}
}

// RunGenerateNow runs the occurrence generation job immediately, used at
// startup so a fresh deployment has bookable occurrences before 2 AM.
func (s *CronService) RunGenerateNow() (int, error) {
	return s.occurrences.GenerateOccurrences()
}
