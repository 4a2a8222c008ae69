package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelsuite/bus-booking-backend/internal/models"
)

func TestExpandDates_Daily(t *testing.T) {
	rec := &models.ScheduleRecurrence{
		RecurrenceType: models.RecurrenceDaily,
		CreatedAt:      time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
	}
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

	dates := expandDates(rec, today, 7)
	require.Len(t, dates, 8, "today through day 7 inclusive")
	assert.Equal(t, today, dates[0])
	assert.Equal(t, today.AddDate(0, 0, 7), dates[7])
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, dates[i-1].AddDate(0, 0, 1), dates[i])
	}
}

func TestExpandDates_WeeklyAnchorsOnCreationWeekday(t *testing.T) {
	// Created on a Wednesday, so it runs Wednesdays.
	rec := &models.ScheduleRecurrence{
		RecurrenceType: models.RecurrenceWeekly,
		CreatedAt:      time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC),
	}
	require.Equal(t, time.Wednesday, rec.CreatedAt.Weekday())

	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
	dates := expandDates(rec, today, 21)

	require.NotEmpty(t, dates)
	for _, d := range dates {
		assert.Equal(t, time.Wednesday, d.Weekday())
	}
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), dates[0])
	require.Len(t, dates, 3)
	assert.Equal(t, dates[0].AddDate(0, 0, 7), dates[1])
}

func TestStepDays(t *testing.T) {
	daily := &models.ScheduleRecurrence{RecurrenceType: models.RecurrenceDaily}
	weekly := &models.ScheduleRecurrence{RecurrenceType: models.RecurrenceWeekly}
	assert.Equal(t, 1, daily.StepDays())
	assert.Equal(t, 7, weekly.StepDays())
}
