package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travelsuite/bus-booking-backend/internal/database"
	"github.com/travelsuite/bus-booking-backend/internal/models"
	"github.com/travelsuite/bus-booking-backend/internal/monitoring"
)

// OccurrenceService owns the occurrence lifecycle: generating dated
// departures from recurrences, serving the search API, and the two sweepers
// (departed occurrences, expired pending holds).
type OccurrenceService struct {
	occurrences *database.OccurrenceRepository
	bookings    *database.BookingRepository
	metrics     *monitoring.Metrics
	logger      *logrus.Logger

	daysAhead  int
	pendingTTL time.Duration
}

// NewOccurrenceService creates a new OccurrenceService
func NewOccurrenceService(
	occurrences *database.OccurrenceRepository,
	bookings *database.BookingRepository,
	metrics *monitoring.Metrics,
	logger *logrus.Logger,
	daysAhead int,
	pendingTTL time.Duration,
) *OccurrenceService {
	return &OccurrenceService{
		occurrences: occurrences,
		bookings:    bookings,
		metrics:     metrics,
		logger:      logger,
		daysAhead:   daysAhead,
		pendingTTL:  pendingTTL,
	}
}

// GetOccurrence returns one hydrated occurrence
func (s *OccurrenceService) GetOccurrence(id uuid.UUID) (*models.ScheduleOccurrence, error) {
	return s.occurrences.GetByID(id)
}

// ListBookable lists upcoming bookable occurrences
func (s *OccurrenceService) ListBookable(filter database.OccurrenceFilter) ([]models.ScheduleOccurrence, error) {
	return s.occurrences.ListBookable(filter)
}

// GenerateOccurrences expands every active recurrence into dated occurrences
// over the configured look-ahead window. Existing dates are skipped, so the
// job is safe to re-run. Returns the number of occurrences created.
func (s *OccurrenceService) GenerateOccurrences() (int, error) {
	recurrences, err := s.occurrences.ListActiveRecurrences()
	if err != nil {
		return 0, fmt.Errorf("failed to load recurrences: %w", err)
	}

	today := time.Now().Truncate(24 * time.Hour)
	created := 0
	for i := range recurrences {
		rec := &recurrences[i]
		for _, date := range expandDates(rec, today, s.daysAhead) {
			inserted, err := s.occurrences.InsertOccurrence(rec, date)
			if err != nil {
				return created, fmt.Errorf("failed to generate occurrence for recurrence %s: %w", rec.ID, err)
			}
			if inserted {
				created++
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"recurrences": len(recurrences),
		"created":     created,
		"days_ahead":  s.daysAhead,
	}).Info("Occurrence generation complete")
	return created, nil
}

// expandDates lists the calendar dates a recurrence should run on, from today
// through the look-ahead horizon. Daily recurrences run every day; weekly
// ones run on the weekday the recurrence was created on.
func expandDates(rec *models.ScheduleRecurrence, today time.Time, daysAhead int) []time.Time {
	start := today
	if rec.RecurrenceType == models.RecurrenceWeekly {
		for start.Weekday() != rec.CreatedAt.Weekday() {
			start = start.AddDate(0, 0, 1)
		}
	}

	horizon := today.AddDate(0, 0, daysAhead)
	step := rec.StepDays()

	var dates []time.Time
	for d := start; !d.After(horizon); d = d.AddDate(0, 0, step) {
		dates = append(dates, d)
	}
	return dates
}

// SweepDeparted marks overdue occurrences as departed
func (s *OccurrenceService) SweepDeparted() (int64, error) {
	swept, err := s.occurrences.SweepDeparted()
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		if s.metrics != nil {
			s.metrics.OccurrencesSwept.Add(float64(swept))
		}
		s.logger.WithField("count", swept).Info("Marked occurrences departed")
	}
	return swept, nil
}

// ExpirePendingHolds releases seats held by pending bookings older than the
// hold window.
func (s *OccurrenceService) ExpirePendingHolds() (int64, error) {
	expired, err := s.bookings.ExpireStalePending(s.pendingTTL)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		if s.metrics != nil {
			s.metrics.PendingExpired.Add(float64(expired))
		}
		s.logger.WithField("count", expired).Info("Expired stale pending bookings")
	}
	return expired, nil
}
